package graph

import (
	"context"
	"errors"
	"sync"
)

// ErrClientClosed is returned by MemoryClient after Close.
var ErrClientClosed = errors.New("graph client closed")

// MemoryClient is an in-memory Client that records statements and replays canned
// results. It lets repository logic be tested without a running database.
type MemoryClient struct {
	mu           sync.Mutex
	writeCalls   []ExecutedQuery
	readCalls    []ExecutedQuery
	readResults  []Result
	writeResults []Result
	err          error
	writes       int
	writeErrAt   int
	writeErr     error
	rollbacks    int
	connectivity error
	closed       bool
}

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// NewMemoryClient instantiates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{writeErrAt: -1}
}

// WithError configures the client to return the provided error for subsequent calls.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailWriteAt makes the n-th write statement (zero based, counted from creation,
// including statements run inside transactions) return err.
func (m *MemoryClient) FailWriteAt(n int, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrAt = n
	m.writeErr = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushReadResult appends a result that will be returned on the next ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

// PushWriteResult appends a result that will be returned on the next ExecuteWrite call.
func (m *MemoryClient) PushWriteResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeResults = append(m.writeResults, res)
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.callErr(); err != nil {
		return Result{}, err
	}
	res, err := m.write()
	m.writeCalls = append(m.writeCalls, ExecutedQuery{Query: cypher, Params: cloneMap(params)})
	return res, err
}

// ExecuteWriteTx runs fn against a staging transaction. Statements are recorded in
// WriteCalls only when fn returns nil; otherwise they are dropped and counted as a rollback.
func (m *MemoryClient) ExecuteWriteTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	err := m.callErr()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	tx := &memoryTx{client: m}
	if err := fn(tx); err != nil {
		m.mu.Lock()
		m.rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls = append(m.writeCalls, tx.staged...)
	return nil
}

// Rollbacks reports how many transactions were rolled back.
func (m *MemoryClient) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

// write consumes the next canned write result. The caller holds m.mu.
func (m *MemoryClient) write() (Result, error) {
	if err := m.callErr(); err != nil {
		return Result{}, err
	}
	failing := m.writes == m.writeErrAt
	m.writes++
	if failing {
		return Result{}, m.writeErr
	}
	return shift(&m.writeResults), nil
}

type memoryTx struct {
	client *MemoryClient
	staged []ExecutedQuery
}

func (tx *memoryTx) Run(_ context.Context, cypher string, params map[string]any) (Result, error) {
	tx.client.mu.Lock()
	defer tx.client.mu.Unlock()

	res, err := tx.client.write()
	if err != nil {
		return Result{}, err
	}
	tx.staged = append(tx.staged, ExecutedQuery{Query: cypher, Params: cloneMap(params)})
	return res, nil
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.callErr(); err != nil {
		return Result{}, err
	}

	m.readCalls = append(m.readCalls, ExecutedQuery{Query: cypher, Params: cloneMap(params)})
	return shift(&m.readResults), nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// WriteCalls returns a snapshot of executed write queries.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

// ReadCalls returns a snapshot of executed read queries.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.readCalls...)
}

func (m *MemoryClient) callErr() error {
	if m.closed {
		return ErrClientClosed
	}
	return m.err
}

func shift(queue *[]Result) Result {
	if len(*queue) == 0 {
		return Result{}
	}
	res := (*queue)[0]
	*queue = (*queue)[1:]
	return res
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
