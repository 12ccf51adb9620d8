package keccak

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/klauspost/cpuid/v2"
)

// FeatureReport is an immutable snapshot of detected hardware capabilities.
// It is computed by a single probe and never re-read mid-operation.
type FeatureReport struct {
	AMD64    bool
	SSE2     bool
	AVX2     bool
	AVX512F  bool
	AVX512VL bool
	ARM64    bool
	NEON     bool
	SHA3     bool
}

var detectFeatures = sync.OnceValue(func() FeatureReport {
	return FeatureReport{
		AMD64:    runtime.GOARCH == "amd64",
		SSE2:     cpuid.CPU.Has(cpuid.SSE2),
		AVX2:     cpuid.CPU.Has(cpuid.AVX2),
		AVX512F:  cpuid.CPU.Has(cpuid.AVX512F),
		AVX512VL: cpuid.CPU.Has(cpuid.AVX512VL),
		ARM64:    runtime.GOARCH == "arm64",
		NEON:     cpuid.CPU.Has(cpuid.ASIMD),
		SHA3:     cpuid.CPU.Has(cpuid.SHA3),
	}
})

// DetectFeatures returns the hardware capability snapshot for this process.
// The underlying probe runs once; all callers see the same report.
func DetectFeatures() FeatureReport {
	return detectFeatures()
}

// RecommendedLevel returns the highest optimization level the reported
// capabilities support.
func (r FeatureReport) RecommendedLevel() OptimizationLevel {
	switch {
	case r.AVX512F && r.AVX512VL:
		return Maximum
	case r.AVX2:
		return Advanced
	case r.SSE2 || (r.ARM64 && r.NEON):
		return Basic
	default:
		return Reference
	}
}

// FeatureConfig selects which optimizations the library may use. The zero
// value is not meaningful; construct via DefaultFeatureConfig or a preset.
type FeatureConfig struct {
	// Level is the requested optimization level.
	Level OptimizationLevel
	// EnableParallel permits batch-parallel processing.
	EnableParallel bool
	// EnableAdvancedSIMD permits wide batch groupings.
	EnableAdvancedSIMD bool
	// EnablePlatform permits platform-tuned single-state kernels.
	EnablePlatform bool
}

// DefaultFeatureConfig returns a configuration using the best detected level
// with all optimizations permitted.
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		Level:              BestAvailable(),
		EnableParallel:     true,
		EnableAdvancedSIMD: true,
		EnablePlatform:     true,
	}
}

// SecurityFeatureConfig returns a configuration restricted to the reference
// implementation.
func SecurityFeatureConfig() FeatureConfig {
	return FeatureConfig{Level: Reference}
}

// PerformanceFeatureConfig returns a configuration requesting every
// available optimization.
func PerformanceFeatureConfig() FeatureConfig {
	return FeatureConfig{
		Level:              Maximum,
		EnableParallel:     true,
		EnableAdvancedSIMD: true,
		EnablePlatform:     true,
	}
}

// CompatibilityFeatureConfig returns a configuration limited to
// widely-supported platform optimizations.
func CompatibilityFeatureConfig() FeatureConfig {
	return FeatureConfig{Level: Basic, EnablePlatform: true}
}

// EffectiveLevel resolves the configuration to the level dispatch will use,
// clamped to what the platform actually supports.
func (c FeatureConfig) EffectiveLevel() OptimizationLevel {
	if !c.EnablePlatform {
		return Reference
	}
	level := c.Level
	if !c.EnableAdvancedSIMD && level == Maximum {
		level = Advanced
	}
	for level > Reference && !level.Available() {
		level--
	}
	return level
}

// currentConfig is the process-wide configuration cell: an atomically
// swapped immutable snapshot, never mutated in place.
var currentConfig atomic.Pointer[FeatureConfig]

// CurrentConfig returns the process-wide feature configuration, or
// DefaultFeatureConfig if none has been set.
func CurrentConfig() FeatureConfig {
	if c := currentConfig.Load(); c != nil {
		return *c
	}
	return DefaultFeatureConfig()
}

// SetCurrentConfig replaces the process-wide feature configuration.
func SetCurrentConfig(c FeatureConfig) {
	currentConfig.Store(&c)
}

// ResetCurrentConfig restores the default process-wide configuration.
func ResetCurrentConfig() {
	currentConfig.Store(nil)
}
