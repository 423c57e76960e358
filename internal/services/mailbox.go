package services

import (
	"sync"

	"pose-feedback/internal/models"
)

// mailbox is a single-slot buffer with overwrite semantics.
// Put never blocks; an unconsumed detection is replaced and counted as
// dropped. Take blocks until a detection is available or the mailbox is
// closed. Single consumer only.
type mailbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	det     *models.DetectionResult // nil = consumed
	closed  bool
	dropped uint64
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Put stores det, reporting false if the mailbox is closed
func (m *mailbox) Put(det *models.DetectionResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if m.det != nil {
		m.dropped++
	}
	m.det = det
	m.cond.Signal()
	return true
}

// Take returns the latest detection, or false once closed
func (m *mailbox) Take() (*models.DetectionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.det == nil && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return nil, false
	}

	det := m.det
	m.det = nil
	return det, true
}

// Close wakes the consumer. A pending detection is discarded and counted
// as dropped.
func (m *mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.det != nil {
		m.dropped++
		m.det = nil
	}
	m.closed = true
	m.cond.Signal()
}

// Dropped returns how many detections were overwritten or discarded
func (m *mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
