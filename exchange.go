package depot

import mag "github.com/djdv/go-depot/internal/magazine"

// exchangeForFull trades a CPU store's spent magazine for a full one.
// On success, retired (if any) moves to the empty list.
// If no full magazine is available, nil is returned and
// retired remains with the caller.
func (d *Depot[T]) exchangeForFull(retired *magazine[T]) *magazine[T] {
	d.lockLists()
	defer d.lock.Unlock()
	full := d.full.Pop()
	if full == nil {
		return nil
	}
	if retired != nil {
		if debugging {
			assert(retired.IsEmpty(),
				"retiring a non-empty magazine to the empty list")
		}
		d.link(&d.empty, retired)
		d.trimLocked()
	}
	return full
}

// exchangeForEmpty trades a CPU store's full magazine for an empty one,
// allocating a new magazine if the lists hold none and the
// retention ceiling allows it.
// On success, retired (if any) moves to the full list.
// Otherwise nil is returned and retired remains with the caller.
func (d *Depot[T]) exchangeForEmpty(retired *magazine[T], flags Flags) *magazine[T] {
	d.lockLists()
	defer d.lock.Unlock()
	empty := d.empty.Pop()
	if empty == nil {
		var (
			retained = d.full.Len() + d.empty.Len()
			canGrow  = retained < d.maxCount &&
				flags&FlagNoAllocate == 0
		)
		if !canGrow {
			d.refusals.Add(1)
			d.logger.Debug("magazine allocation refused",
				"retained", retained,
				"max_magazines", d.maxCount,
				"flags", flags,
			)
			return nil
		}
		empty = mag.New[T](d.capacity)
		d.allocated.Add(1)
	}
	if retired != nil {
		if debugging {
			assert(retired.IsFull(),
				"retiring a partial magazine to the full list")
		}
		d.link(&d.full, retired)
		d.trimLocked()
	}
	return empty
}

// trimLocked releases empty magazines while the lists
// retain more than the ceiling allows.
// Caller must hold the list lock.
func (d *Depot[_]) trimLocked() {
	var trimmed uint64
	for d.full.Len()+d.empty.Len() > d.maxCount &&
		d.empty.Pop() != nil {
		trimmed++
	}
	if trimmed != 0 {
		d.freed.Add(trimmed)
	}
}

// link queues m on list.
// Caller must hold the list lock.
func (d *Depot[T]) link(list *magazineList[T], m *magazine[T]) {
	if debugging {
		assert(!m.Linked(), "magazine is already on a depot list")
	}
	list.Push(m)
}

func (d *Depot[_]) lockLists() {
	d.lock.Lock()
	d.lockAcquisitions.Add(1)
}
