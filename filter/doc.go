// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

// Package filter evaluates candidate eligibility: static attribute bounds,
// the exclude list, deployer-supplied rules, and re-touch suppression via
// the action store. Checks short-circuit cheapest-first, and a failing rule
// marks the target ineligible instead of aborting the run.
package filter
