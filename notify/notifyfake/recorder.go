package notifyfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-dochub-client/notify"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindAlert   Kind = "alert"
)

type Notice struct {
	Kind    Kind
	Title   string
	Message string
}

var _ notify.Notifier = (*Recorder)(nil)

// Recorder keeps every notice it receives.
type Recorder struct {
	notices []Notice
	lock    sync.Mutex
}

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) {
	r.add(Notice{Kind: KindSuccess, Message: message})
}

func (r *Recorder) Error(message string) {
	r.add(Notice{Kind: KindError, Message: message})
}

func (r *Recorder) Alert(_ context.Context, title, message string) error {
	r.add(Notice{Kind: KindAlert, Title: title, Message: message})
	return nil
}

func (r *Recorder) Notices() []Notice {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Of returns the notices of one kind.
func (r *Recorder) Of(kind Kind) []Notice {
	var out []Notice
	for _, n := range r.Notices() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *Recorder) add(n Notice) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.notices = append(r.notices, n)
}
