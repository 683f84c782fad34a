// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agent

import "github.com/MakeNowJust/heredoc"

// todoReminderInterval is how many messages may elapse without a
// TodoWrite before the periodic reminder is injected.
const todoReminderInterval = 8

// beforeFirstMessageReminder precedes the first user message of every
// agent.
var beforeFirstMessageReminder = heredoc.Doc(`
	<system-reminder>
	This is the start of a new task. Read the request carefully before
	acting. Prefer your tools over guessing: Read before you Write or
	Edit, and Grep or Glob before assuming a file's location. Tool
	failures are reported back to you as results; adapt rather than
	repeating the same call.
	</system-reminder>
`)

// afterFirstMessageReminder follows the first user message, nudging the
// agent to plan with its todo list.
var afterFirstMessageReminder = heredoc.Doc(`
	<system-reminder>
	For multi-step work, use the TodoWrite tool to plan before you start
	and keep it updated as you go: mark items in_progress when you begin
	them and completed when they are done. Skip the list only for
	trivial single-step tasks.
	</system-reminder>
`)

// periodicTodoReminder is injected when too many messages pass without a
// TodoWrite.
var periodicTodoReminder = heredoc.Doc(`
	<system-reminder>
	Your todo list has not been updated recently. If the plan has
	changed or items are done, update it with TodoWrite now; keeping it
	current helps you stay on track.
	</system-reminder>
`)
