// Package pipeline chains the matrix stages of the filter bank.
//
// A filter bank direction is a fixed sequence of stages, each taking a
// polyphase row vector and returning a new one: polynomial products with a
// folding or delay matrix, and the per-block DCT-IV.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tphakala/simd/cpu"

	"github.com/tphakala/go-mdct/internal/dct4"
	"github.com/tphakala/go-mdct/internal/polymat"
)

// ErrEmptyPipeline is returned when a pipeline is built without stages.
var ErrEmptyPipeline = errors.New("pipeline has no stages")

// Stage represents a single processing stage of a filter bank direction.
type Stage interface {
	// Apply transforms a polyphase row vector.
	Apply(ctx context.Context, in *polymat.Matrix) (*polymat.Matrix, error)

	// GetType identifies the stage.
	GetType() StageType

	// GetLatency returns the delay the stage adds, in blocks.
	GetLatency() int

	// GetMemoryUsage returns approximate memory usage in bytes.
	GetMemoryUsage() int64

	// GetSIMDInfo returns SIMD optimization info (empty if none).
	GetSIMDInfo() string
}

// StageType identifies the type of processing stage.
type StageType int

const (
	// StageFold multiplies by the folding matrix or its inverse.
	StageFold StageType = iota

	// StageDelay multiplies by a delay matrix.
	StageDelay

	// StageTransform applies the DCT-IV to every block.
	StageTransform
)

// String returns the stage type name.
func (t StageType) String() string {
	switch t {
	case StageFold:
		return "fold"
	case StageDelay:
		return "delay"
	case StageTransform:
		return "dct4"
	default:
		return fmt.Sprintf("stage(%d)", int(t))
	}
}

// MulStage right-multiplies its input by a fixed polynomial matrix.
type MulStage struct {
	kind    StageType
	m       *polymat.Matrix
	workers int
}

// NewMulStage returns a stage computing in·m. With workers > 1 the product
// is split across goroutines; the result is identical either way.
func NewMulStage(kind StageType, m *polymat.Matrix, workers int) (*MulStage, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil stage matrix", polymat.ErrDimension)
	}
	return &MulStage{kind: kind, m: m, workers: workers}, nil
}

// Apply implements Stage.
func (s *MulStage) Apply(ctx context.Context, in *polymat.Matrix) (*polymat.Matrix, error) {
	if s.workers > 1 {
		return polymat.MulParallel(ctx, in, s.m, s.workers)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return polymat.Mul(in, s.m)
}

// GetType implements Stage.
func (s *MulStage) GetType() StageType { return s.kind }

// GetLatency implements Stage.
func (s *MulStage) GetLatency() int { return s.m.Degree() }

// GetMemoryUsage implements Stage.
func (s *MulStage) GetMemoryUsage() int64 {
	rows, cols, taps := s.m.Shape()
	return int64(rows*cols*taps) * bytesPerFloat64
}

// GetSIMDInfo implements Stage.
func (s *MulStage) GetSIMDInfo() string { return "" }

// Matrix returns the stage matrix.
func (s *MulStage) Matrix() *polymat.Matrix { return s.m }

// TransformStage applies a DCT-IV to every block of its input.
type TransformStage struct {
	tr *dct4.Transform
}

// NewTransformStage wraps a precomputed transform.
func NewTransformStage(tr *dct4.Transform) *TransformStage {
	return &TransformStage{tr: tr}
}

// Apply implements Stage.
func (s *TransformStage) Apply(ctx context.Context, in *polymat.Matrix) (*polymat.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.tr.ApplyRows(in)
}

// GetType implements Stage.
func (s *TransformStage) GetType() StageType { return StageTransform }

// GetLatency implements Stage.
func (s *TransformStage) GetLatency() int { return 0 }

// GetMemoryUsage implements Stage.
func (s *TransformStage) GetMemoryUsage() int64 { return s.tr.MemoryUsage() }

// GetSIMDInfo implements Stage.
func (s *TransformStage) GetSIMDInfo() string { return cpu.Info() }

// Pipeline is an ordered, immutable list of stages.
type Pipeline struct {
	stages       []Stage
	totalLatency int
}

// New builds a pipeline running stages in order.
func New(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyPipeline
	}

	p := &Pipeline{stages: append([]Stage(nil), stages...)}
	for _, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("%w: nil stage", ErrEmptyPipeline)
		}
		p.totalLatency += s.GetLatency()
	}
	return p, nil
}

// Run feeds in through every stage.
func (p *Pipeline) Run(ctx context.Context, in *polymat.Matrix) (*polymat.Matrix, error) {
	out := in
	for i, s := range p.stages {
		var err error
		out, err = s.Apply(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, s.GetType(), err)
		}
	}
	return out, nil
}

// GetStages returns the pipeline stages.
func (p *Pipeline) GetStages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// GetTotalLatency returns the total pipeline latency in blocks.
func (p *Pipeline) GetTotalLatency() int {
	return p.totalLatency
}

// GetMemoryUsage returns the memory held by all stages.
func (p *Pipeline) GetMemoryUsage() int64 {
	var total int64
	for _, s := range p.stages {
		total += s.GetMemoryUsage()
	}
	return total
}

// GetSIMDInfo returns the first non-empty SIMD description of any stage.
func (p *Pipeline) GetSIMDInfo() string {
	for _, s := range p.stages {
		if info := s.GetSIMDInfo(); info != "" {
			return info
		}
	}
	return ""
}
