package frame

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"cvwidgets/util/signal"
)

// Processor transforms an array before it is displayed.
type Processor interface {
	ProcessArray(Array) (Array, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(Array) (Array, error)

func (f ProcessorFunc) ProcessArray(a Array) (Array, error) {
	return f(a)
}

// Identity returns its input unchanged.
var Identity = ProcessorFunc(func(a Array) (Array, error) { return a, nil })

type chain []Processor

func (c chain) ProcessArray(a Array) (Array, error) {
	var err error
	for _, p := range c {
		if a, err = p.ProcessArray(a); err != nil {
			return Array{}, err
		}
	}
	return a, nil
}

// Chain applies processors left to right, stopping at the first error.
func Chain(processors ...Processor) Processor {
	return chain(processors)
}

// ArrayProcessor is the pipeline stage between a converter and a label:
// SetArray runs the processor and emits the result on ArrayChanged.
type ArrayProcessor struct {
	mu        sync.Mutex
	processor Processor
	current   Array

	ArrayChanged  *signal.Signal[Array]
	ErrorOccurred *signal.Signal[error]
}

// NewArrayProcessor wraps p; a nil p passes arrays through.
func NewArrayProcessor(p Processor) *ArrayProcessor {
	if p == nil {
		p = Identity
	}
	return &ArrayProcessor{
		processor:     p,
		ArrayChanged:  signal.New[Array](),
		ErrorOccurred: signal.New[error](),
	}
}

func (ap *ArrayProcessor) Processor() Processor {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.processor
}

func (ap *ArrayProcessor) SetProcessor(p Processor) {
	if p == nil {
		p = Identity
	}
	ap.mu.Lock()
	ap.processor = p
	ap.mu.Unlock()
}

// CurrentArray is the last array passed to SetArray, before processing.
func (ap *ArrayProcessor) CurrentArray() Array {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.current
}

// SetArray processes a and emits the result.
func (ap *ArrayProcessor) SetArray(a Array) {
	ap.mu.Lock()
	ap.current = a.Clone()
	p := ap.processor
	ap.mu.Unlock()

	out, err := p.ProcessArray(a)
	if err != nil {
		log.Errorf("process %v failed: %v", a, err)
		ap.ErrorOccurred.Emit(err)
		return
	}
	ap.ArrayChanged.Emit(out)
}

// Refresh re-processes and emits CurrentArray.
func (ap *ArrayProcessor) Refresh() {
	ap.SetArray(ap.CurrentArray())
}
