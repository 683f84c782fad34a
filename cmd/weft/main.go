// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Command weft executes agent swarms and workflows from YAML
// configuration.
package main

func main() {
	Execute()
}
