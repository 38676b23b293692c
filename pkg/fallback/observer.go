package fallback

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ensure that the observers implement the correct interfaces
var (
	_ Observer = ObserverFunc(nil)
	_ Observer = (*Fanout)(nil)
	_ Observer = (*Printer)(nil)
)

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, attempt Attempt)

// OnAttempt implements Observer
func (f ObserverFunc) OnAttempt(ctx context.Context, attempt Attempt) {
	f(ctx, attempt)
}

// Fanout is an observer that forwards the attempts to multiple observers.
type Fanout struct {
	observers []Observer
}

func NewFanout(observers ...Observer) *Fanout {
	return &Fanout{observers: observers}
}

func (l *Fanout) Add(observer Observer) {
	l.observers = append(l.observers, observer)
}

func (l *Fanout) OnAttempt(ctx context.Context, attempt Attempt) {
	for _, o := range l.observers {
		o.OnAttempt(ctx, attempt)
	}
}

// Printer is an observer that prints attempts to the Writer.
type Printer struct {
	Out io.Writer

	lock sync.Mutex
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{Out: out}
}

func (l *Printer) OnAttempt(ctx context.Context, attempt Attempt) {
	l.lock.Lock()
	defer l.lock.Unlock()

	label := "Primary"
	if attempt.Index > 0 {
		label = fmt.Sprintf("Fallback #%d", attempt.Index)
	}
	if attempt.Succeeded() {
		fmt.Fprintf(l.Out, "%s: %s succeeded in %s\n", label, attempt.DisplayName, attempt.Duration)
		return
	}
	fmt.Fprintf(l.Out, "%s: %s failed (%s): %s\n", label, attempt.DisplayName, attempt.Kind, attempt.Error)
}
