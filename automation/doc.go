// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

// Package automation defines the boundary to the external browser
// automation layer: the Session interface the orchestrator drives, plus the
// dry-run and call-pacing decorators that wrap a real session.
package automation
