// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package events

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

// NDJSONSubscriber returns a subscriber that writes each event as one
// JSON object per line. Writes are serialized; marshal failures are
// dropped rather than breaking the stream.
func NDJSONSubscriber(w io.Writer) Subscriber {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(ev)
	}
}

// ZapSubscriber returns a subscriber that mirrors events into structured
// logs at Info level.
func ZapSubscriber(logger *zap.Logger) Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ev Event) {
		logger.Info(string(ev.EventType()),
			zap.Time("timestamp", ev.OccurredAt()),
			zap.Any("event", ev))
	}
}

// CaptureSubscriber appends every event to the given slice. Intended for
// tests; the slice pointer must outlive the run.
func CaptureSubscriber(dst *[]Event) Subscriber {
	var mu sync.Mutex
	return func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		*dst = append(*dst, ev)
	}
}
