package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/windforest/querychat/internal/nl2sql"
	"github.com/windforest/querychat/internal/query"
	"github.com/windforest/querychat/internal/session"
)

type scriptedTranslator struct {
	mu       sync.Mutex
	outcome  nl2sql.Outcome
	err      error
	requests []nl2sql.Request
	delay    time.Duration
	echo     bool
}

func (f *scriptedTranslator) Translate(_ context.Context, req nl2sql.Request) (nl2sql.Outcome, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.echo {
		return nl2sql.DirectAnswer{Text: "echo: " + req.Question}, nil
	}
	return f.outcome, f.err
}

type recordingEngine struct {
	mu      sync.Mutex
	result  query.Result
	err     error
	calls   []query.Request
	timeout bool
}

func (e *recordingEngine) Execute(ctx context.Context, req query.Request) (query.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, req)
	_, e.timeout = ctx.Deadline()
	return e.result, e.err
}

type failingStore struct {
	session.Store
	failAppend bool
}

func (f *failingStore) Append(ctx context.Context, id string, msg session.Message) error {
	if f.failAppend {
		return errors.New("disk full")
	}
	return f.Store.Append(ctx, id, msg)
}

func newService(translator nl2sql.Translator, engine query.Engine) (*Service, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return &Service{
		Sessions:     store,
		Translator:   translator,
		Engine:       engine,
		RowLimit:     100,
		QueryTimeout: time.Second,
	}, store
}

func TestSendSQLInvocationRecordsBothTurns(t *testing.T) {
	translator := &scriptedTranslator{outcome: nl2sql.SQLInvocation{
		SQL: `SELECT c.name, SUM(oi.quantity * oi.unit_price) AS total_value
FROM customers c JOIN orders o ON o.customer_id = c.id
JOIN order_items oi ON oi.order_id = o.id
GROUP BY c.id ORDER BY total_value DESC LIMIT 5`,
		Rationale: "Join customers to their order items and rank by total value.",
	}}
	engine := &recordingEngine{result: query.Result{
		Columns: []string{"name", "total_value"},
		Rows: [][]any{
			{"Ada Lovelace", 15234.5},
			{"Grace Hopper", 12000.0},
			{"Alan Turing", 9800.25},
			{"Edsger Dijkstra", 7600.0},
			{"Barbara Liskov", 5100.75},
		},
	}}
	svc, store := newService(translator, engine)

	reply, err := svc.Send(context.Background(), "", "What are our top 5 customers by total order value?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !session.ValidID(reply.SessionID) {
		t.Fatalf("SessionID = %q, want generated id", reply.SessionID)
	}
	if reply.Outcome != OutcomeSQL {
		t.Fatalf("Outcome = %q", reply.Outcome)
	}
	for _, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Edsger Dijkstra", "Barbara Liskov"} {
		if !strings.Contains(reply.Response, name) {
			t.Fatalf("reply missing %q", name)
		}
	}
	if !strings.Contains(reply.Response, "**Rationale:** Join customers") || !strings.Contains(reply.Response, "15,234.50") {
		t.Fatalf("reply = %s", reply.Response)
	}
	if len(reply.Sources) != 1 || !strings.HasPrefix(reply.Sources[0], "SELECT c.name") {
		t.Fatalf("Sources = %v", reply.Sources)
	}
	if len(engine.calls) != 1 || engine.calls[0].RowLimit != 100 || !engine.timeout {
		t.Fatalf("engine calls = %+v timeout = %v", engine.calls, engine.timeout)
	}

	history, err := store.History(context.Background(), reply.SessionID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d messages, want 2", len(history))
	}
	if !history[0].IsUser() || history[0].Text != "What are our top 5 customers by total order value?" {
		t.Fatalf("history[0] = %+v", history[0])
	}
	if history[1].IsUser() || history[1].Text != reply.Response {
		t.Fatalf("history[1] = %+v", history[1])
	}
}

func TestSendDirectAnswerSkipsExecution(t *testing.T) {
	translator := &scriptedTranslator{outcome: nl2sql.DirectAnswer{Text: "Hello! I can answer questions about the bookstore."}}
	engine := &recordingEngine{}
	svc, _ := newService(translator, engine)

	reply, err := svc.Send(context.Background(), "s-1", "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.Response != "Hello! I can answer questions about the bookstore." {
		t.Fatalf("Response = %q", reply.Response)
	}
	if reply.Outcome != OutcomeAnswer || len(reply.Sources) != 0 {
		t.Fatalf("reply = %+v", reply)
	}
	if len(engine.calls) != 0 {
		t.Fatal("direct answers must not run a query")
	}
}

func TestSendZeroRowsSaysNoResults(t *testing.T) {
	translator := &scriptedTranslator{outcome: nl2sql.SQLInvocation{SQL: "SELECT name FROM customers WHERE 1 = 0", Rationale: "Nothing matches."}}
	engine := &recordingEngine{result: query.Result{Columns: []string{"name"}}}
	svc, _ := newService(translator, engine)

	reply, err := svc.Send(context.Background(), "s-1", "Any customers from Mars?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !strings.Contains(reply.Response, "No results found.") {
		t.Fatalf("Response = %q", reply.Response)
	}
}

func TestSendExecutionFailureKeepsBothTurns(t *testing.T) {
	translator := &scriptedTranslator{outcome: nl2sql.SQLInvocation{SQL: "SELECT nme FROM customers", Rationale: "typo"}}
	engine := &recordingEngine{err: fmt.Errorf("execute query: %w", errors.New("no such column: nme"))}
	svc, store := newService(translator, engine)

	reply, err := svc.Send(context.Background(), "s-err", "List customer names")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.Outcome != OutcomeExecutionError {
		t.Fatalf("Outcome = %q", reply.Outcome)
	}
	if !strings.Contains(reply.Response, "no such column: nme") {
		t.Fatalf("Response = %q", reply.Response)
	}
	if len(reply.Sources) != 0 {
		t.Fatalf("Sources = %v", reply.Sources)
	}
	history, _ := store.History(context.Background(), "s-err")
	if len(history) != 2 || history[1].Origin != session.OriginError {
		t.Fatalf("history = %+v", history)
	}
}

func TestSendRejectsMutatingSQLWithoutExecuting(t *testing.T) {
	translator := &scriptedTranslator{outcome: nl2sql.SQLInvocation{SQL: "DELETE FROM customers", Rationale: "cleanup"}}
	engine := &recordingEngine{}
	svc, store := newService(translator, engine)

	reply, err := svc.Send(context.Background(), "s-2", "delete everyone")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.Outcome != OutcomeRejected {
		t.Fatalf("Outcome = %q", reply.Outcome)
	}
	if len(engine.calls) != 0 {
		t.Fatal("rejected SQL must not reach the engine")
	}
	history, _ := store.History(context.Background(), "s-2")
	if len(history) != 2 {
		t.Fatalf("history = %d", len(history))
	}
}

func TestSendTranslationFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "unparseable", err: fmt.Errorf("%w: empty reply", nl2sql.ErrUnparseable), want: OutcomeTranslationError},
		{name: "unavailable", err: fmt.Errorf("%w: connection refused", nl2sql.ErrUnavailable), want: OutcomeUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: OutcomeUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newService(&scriptedTranslator{err: tc.err}, &recordingEngine{})
			reply, err := svc.Send(context.Background(), "s-"+tc.name, "question")
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if reply.Outcome != tc.want {
				t.Fatalf("Outcome = %q, want %q", reply.Outcome, tc.want)
			}
			if !strings.HasPrefix(reply.Response, "I encountered an error:") {
				t.Fatalf("Response = %q", reply.Response)
			}
			history, _ := store.History(context.Background(), "s-"+tc.name)
			if len(history) != 2 || history[1].Origin != session.OriginError {
				t.Fatalf("history = %+v", history)
			}
		})
	}
}

func TestSendPassesPriorTurnsToTranslator(t *testing.T) {
	translator := &scriptedTranslator{echo: true}
	svc, _ := newService(translator, &recordingEngine{})
	ctx := context.Background()

	if _, err := svc.Send(ctx, "s-ctx", "first"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := svc.Send(ctx, "s-ctx", "second"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(translator.requests) != 2 {
		t.Fatalf("requests = %d", len(translator.requests))
	}
	if len(translator.requests[0].History) != 0 {
		t.Fatalf("first turn history = %+v", translator.requests[0].History)
	}
	second := translator.requests[1].History
	if len(second) != 2 || !second[0].FromUser || second[0].Text != "first" || second[1].FromUser || second[1].Text != "echo: first" {
		t.Fatalf("second turn history = %+v", second)
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc, store := newService(&scriptedTranslator{echo: true}, &recordingEngine{})
	if _, err := svc.Send(context.Background(), "s-empty", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("Send() error = %v, want ErrEmptyMessage", err)
	}
	if store.Len() != 0 {
		t.Fatal("empty messages must not create sessions")
	}
}

func TestSendReplacesInvalidSessionID(t *testing.T) {
	svc, _ := newService(&scriptedTranslator{echo: true}, &recordingEngine{})
	reply, err := svc.Send(context.Background(), "bad id with spaces", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.SessionID == "bad id with spaces" || !session.ValidID(reply.SessionID) {
		t.Fatalf("SessionID = %q", reply.SessionID)
	}
}

func TestSendAndHistoryTrimSessionID(t *testing.T) {
	svc, _ := newService(&scriptedTranslator{echo: true}, &recordingEngine{})
	reply, err := svc.Send(context.Background(), "  tab-7 ", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.SessionID != "tab-7" {
		t.Fatalf("SessionID = %q, want tab-7", reply.SessionID)
	}
	history, err := svc.History(context.Background(), " tab-7")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %+v", history)
	}
}

func TestSendReturnsStoreErrors(t *testing.T) {
	svc, _ := newService(&scriptedTranslator{echo: true}, &recordingEngine{})
	svc.Sessions = &failingStore{Store: session.NewMemoryStore(), failAppend: true}
	if _, err := svc.Send(context.Background(), "s-1", "hi"); err == nil {
		t.Fatal("expected store error")
	}
}

func TestNewSessionHasEmptyHistory(t *testing.T) {
	svc, _ := newService(&scriptedTranslator{echo: true}, &recordingEngine{})
	ctx := context.Background()
	if _, err := svc.Send(ctx, "old-session", "remember me"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	fresh := svc.NewSession()
	if fresh == "old-session" {
		t.Fatal("NewSession() reused an id")
	}
	history, err := svc.History(ctx, fresh)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("fresh history = %+v", history)
	}
	old, _ := svc.History(ctx, "old-session")
	if len(old) != 2 {
		t.Fatalf("old history = %d", len(old))
	}
}

func TestHistoryOfInvalidIDIsEmpty(t *testing.T) {
	svc, _ := newService(&scriptedTranslator{echo: true}, &recordingEngine{})
	history, err := svc.History(context.Background(), "../../etc")
	if err != nil || history == nil || len(history) != 0 {
		t.Fatalf("History() = %v, %v", history, err)
	}
}

func TestConcurrentSendsKeepTurnsAdjacent(t *testing.T) {
	translator := &scriptedTranslator{echo: true, delay: 2 * time.Millisecond}
	svc, store := newService(translator, &recordingEngine{})

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Send(context.Background(), "shared", fmt.Sprintf("q%d", i)); err != nil {
				t.Errorf("Send() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	history, _ := store.History(context.Background(), "shared")
	if len(history) != 2*turns {
		t.Fatalf("history = %d, want %d", len(history), 2*turns)
	}
	for i := 0; i < len(history); i += 2 {
		if !history[i].IsUser() || history[i+1].Text != "echo: "+history[i].Text {
			t.Fatalf("turn %d not adjacent: %q / %q", i/2, history[i].Text, history[i+1].Text)
		}
	}
	if svc.locks.size() != 0 {
		t.Fatalf("lock entries leaked: %d", svc.locks.size())
	}
}
