package cli

// Export internal functions for testing.

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ResolveConfig exports resolveConfig for testing.
var ResolveConfig = resolveConfig

// OnlyFailed exports onlyFailed for testing.
var OnlyFailed = onlyFailed

// RenderSummary exports renderSummary for testing.
var RenderSummary = renderSummary

// MaxProblemRows exports maxProblemRows for testing.
const MaxProblemRows = maxProblemRows
