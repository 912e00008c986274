package keyfile

import (
	"errors"
	"fmt"
)

const (
	DefaultLargeIterations       uint64 = 1 << 20
	DefaultInteractiveIterations uint64 = 1 << 15
	DefaultRelBlockSize          uint8  = 8
	DefaultCpuCost               uint8  = 1
	maxIterations                uint64 = 1 << 30
	maxRelBlockSize              uint8  = 32
	maxCpuCost                   uint8  = 16
	// maxMemory bounds the scrypt working set of 128 * iterations * relative block size bytes.
	maxMemory uint64 = 1 << 31
)

// Generator holds the scrypt tuning values used to lock a Secret.
type Generator struct {
	iterations        uint64
	relativeBlockSize uint8
	cpuCost           uint8
}

type GeneratorOpt = func(*Generator) error

// SetLongDelayIterations sets a higher iteration count, and is the default.
// This is much more resistant to passphrase cracking.
func SetLongDelayIterations() GeneratorOpt {
	return func(gen *Generator) error {
		gen.iterations = DefaultLargeIterations
		return nil
	}
}

// SetShortDelayIterations sets a lower iteration count, for when keyfiles are unlocked frequently.
// It's recommended to use longer passphrases with this approach.
func SetShortDelayIterations() GeneratorOpt {
	return func(gen *Generator) error {
		gen.iterations = DefaultInteractiveIterations
		return nil
	}
}

// SetIterations allows the caller to customize the iteration count.
// Only use this option if you know what you're doing.
func SetIterations(iterations uint64) GeneratorOpt {
	return func(gen *Generator) error {
		return validIterations(iterations, func() {
			gen.iterations = iterations
		})
	}
}

// SetCPUCost sets the parallelism factor for key derivation from the default of 1.
// Only use this option if you know what you're doing.
func SetCPUCost(cost uint8) GeneratorOpt {
	return func(gen *Generator) error {
		if cost < DefaultCpuCost || cost > maxCpuCost {
			return fmt.Errorf("cpu cost must be between %d and %d", DefaultCpuCost, maxCpuCost)
		}
		gen.cpuCost = cost
		return nil
	}
}

// SetRelativeBlockSize sets the relative block size.
// Only use this option if you know what you're doing.
func SetRelativeBlockSize(size uint8) GeneratorOpt {
	return func(gen *Generator) error {
		if size < DefaultRelBlockSize || size > maxRelBlockSize {
			return fmt.Errorf("relative block size must be between %d and %d", DefaultRelBlockSize, maxRelBlockSize)
		}
		gen.relativeBlockSize = size
		return nil
	}
}

// NewGenerator creates a Generator using zero or more GeneratorOpt.
// By default, DefaultLargeIterations is used.
func NewGenerator(opts ...GeneratorOpt) (*Generator, error) {
	gen := &Generator{
		iterations:        DefaultLargeIterations,
		relativeBlockSize: DefaultRelBlockSize,
		cpuCost:           DefaultCpuCost,
	}
	for _, opt := range opts {
		if err := opt(gen); err != nil {
			return nil, err
		}
	}
	if err := validCost(gen.iterations, gen.relativeBlockSize, gen.cpuCost); err != nil {
		return nil, err
	}
	return gen, nil
}

func validIterations(iterations uint64, apply func()) error {
	if iterations <= 1 {
		return errors.New("iterations cannot be <= 1")
	}
	if iterations&(iterations-1) != 0 {
		return errors.New("iterations must be a power of 2")
	}
	if iterations > maxIterations {
		return errors.New("iterations cannot exceed 2^30")
	}
	apply()
	return nil
}

// validCost checks a full set of key derivation parameters, including the memory they would need.
func validCost(iterations uint64, relativeBlockSize, cpuCost uint8) error {
	if err := validIterations(iterations, func() {}); err != nil {
		return err
	}
	if relativeBlockSize < DefaultRelBlockSize || relativeBlockSize > maxRelBlockSize {
		return fmt.Errorf("relative block size %d is outside of [%d, %d]", relativeBlockSize, DefaultRelBlockSize, maxRelBlockSize)
	}
	if cpuCost < DefaultCpuCost || cpuCost > maxCpuCost {
		return fmt.Errorf("cpu cost %d is outside of [%d, %d]", cpuCost, DefaultCpuCost, maxCpuCost)
	}
	if mem := 128 * iterations * uint64(relativeBlockSize); mem > maxMemory {
		return fmt.Errorf("key derivation would need %d bytes of memory, at most %d allowed", mem, maxMemory)
	}
	return nil
}
