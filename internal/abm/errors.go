package abm

import (
	"errors"

	"github.com/san-kum/agentlab/internal/table"
)

// Domain errors for simulation and experiment operations.
var (
	// ErrConfiguration indicates invalid experiment configuration,
	// such as unhashable or empty parameter sets.
	ErrConfiguration = errors.New("abm: invalid configuration")

	// ErrRuntimeLimit indicates a run reached the hard step ceiling
	// without an explicit step limit having been configured.
	ErrRuntimeLimit = errors.New("abm: hard step ceiling reached without step limit")

	// ErrSetupArgument indicates a creation keyword that the object's
	// initializer does not accept.
	ErrSetupArgument = errors.New("abm: setup keyword not accepted")

	// ErrAttributeRecord indicates a recorded variable name that does
	// not resolve on the target object.
	ErrAttributeRecord = errors.New("abm: attribute does not resolve")

	// ErrNotFound indicates an object that is not present in the registry.
	ErrNotFound = errors.New("abm: object not registered")

	// ErrAggregation indicates per-run bundles that disagree in shape or
	// type for a field being merged.
	ErrAggregation = table.ErrAggregation
)
