package store

import (
	"slices"
	"sync"
)

// Entity is a record addressable by a unique, immutable id.
type Entity interface {
	EntityID() string
}

// Collection is an ordered in-memory set of entities keyed by id.
// Index 0 is the most recently added element.
//
// All methods are safe for concurrent use. Batch operations hold the
// write lock for their whole duration, so readers never observe a
// partially applied batch.
type Collection[T Entity] struct {
	mu    sync.RWMutex
	items []T
}

// NewCollection constructs a collection seeded with items in the given order.
func NewCollection[T Entity](seed ...T) *Collection[T] {
	items := make([]T, 0, len(seed))
	items = append(items, seed...)
	return &Collection[T]{items: items}
}

// Add prepends entity. It fails with ErrDuplicateID when the id exists.
func (c *Collection[T]) Add(entity T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(entity.EntityID()) >= 0 {
		return ErrDuplicateID
	}
	c.items = slices.Insert(c.items, 0, entity)
	return nil
}

// Append adds entity at the end of the collection.
func (c *Collection[T]) Append(entity T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(entity.EntityID()) >= 0 {
		return ErrDuplicateID
	}
	c.items = append(c.items, entity)
	return nil
}

// Update replaces the element with the same id as entity.
func (c *Collection[T]) Update(entity T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(entity.EntityID())
	if idx < 0 {
		return ErrNotFound
	}
	c.items[idx] = entity
	return nil
}

// Mutate atomically replaces the element with the given id by the result
// of fn. When fn returns an error the collection is left unchanged.
func (c *Collection[T]) Mutate(id string, fn func(T) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	idx := c.indexOf(id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	updated, err := fn(c.items[idx])
	if err != nil {
		return zero, err
	}
	c.items[idx] = updated
	return updated, nil
}

// Delete removes the element with the given id.
func (c *Collection[T]) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	return nil
}

// DeleteIf removes the element with the given id when check accepts it.
func (c *Collection[T]) DeleteIf(id string, check func(T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	if err := check(c.items[idx]); err != nil {
		return err
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	return nil
}

// Get returns the element with the given id.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	idx := c.indexOf(id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	return c.items[idx], nil
}

// List returns a copy of the current ordered collection.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.items)
}

// Len returns the number of elements.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Merge upserts items in one step: existing ids are replaced in place,
// unknown ids are prepended in the order given.
func (c *Collection[T]) Merge(items []T) {
	if len(items) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var fresh []T
	for _, item := range items {
		if idx := c.indexOf(item.EntityID()); idx >= 0 {
			c.items[idx] = item
			continue
		}
		if idx := indexIn(fresh, item.EntityID()); idx >= 0 {
			fresh[idx] = item
			continue
		}
		fresh = append(fresh, item)
	}
	if len(fresh) > 0 {
		c.items = append(fresh, c.items...)
	}
}

// Reset removes every element.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
}

func (c *Collection[T]) indexOf(id string) int {
	return indexIn(c.items, id)
}

func indexIn[T Entity](items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool {
		return item.EntityID() == id
	})
}
