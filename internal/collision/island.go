package collision

// Islands groups dynamically-connected bodies into solver islands: a
// union-find over body indices, with intrusive doubly-linked lists for
// O(1) membership changes. Removing a contact never splits eagerly;
// the island is marked dirty and rebuilt by Reconstruct before the
// solver needs exact connectivity.
type Islands struct {
	dirty []BodyIndex

	scratchBodies   []BodyIndex
	scratchContacts []ContactIndex
	stack           []BodyIndex
}

// Register initializes a freshly added dynamic or sleeping body as its
// own singleton island. Statics are never registered.
func (is *Islands) Register(bodies *bodyTable, bi BodyIndex) {
	b := bodies.Get(bi)
	assert(b.State != StateStatic, "register: static bodies never form islands")
	b.Island = bi
	b.HeadBody, b.TailBody = bi, bi
	b.NextBody, b.PrevBody = NilBody, NilBody
	b.HeadContact, b.TailContact = NilContact, NilContact
	b.Dirty = false
}

// RepresentativeCompress returns the island root of bi, halving the
// parent chain as it walks. Static bodies return NilBody: a static can
// touch many independent islands without merging them.
func (is *Islands) RepresentativeCompress(bodies *bodyTable, bi BodyIndex) BodyIndex {
	b := bodies.Get(bi)
	if b == nil || b.State == StateStatic {
		return NilBody
	}
	for b.Island != bi {
		parent := bodies.Get(b.Island)
		if parent.Island != b.Island {
			b.Island = parent.Island // point to grandparent
		}
		bi = b.Island
		b = bodies.Get(bi)
	}
	return bi
}

// Link weaves a newly created contact into the island structure. Four
// cases: both static is a caller error; one static adds the contact to
// the other side's island; same island just adds; different islands
// union by re-parenting B's root under A's root. List consolidation
// after a union is deferred to MergeRootIslands.
func (is *Islands) Link(bodies *bodyTable, contacts *contactTable, ci ContactIndex) {
	c := contacts.Get(ci)
	ra := is.RepresentativeCompress(bodies, c.A.Body)
	rb := is.RepresentativeCompress(bodies, c.B.Body)
	assert(ra != NilBody || rb != NilBody, "link: contact between two static bodies")

	switch {
	case ra == NilBody:
		is.addContact(bodies, contacts, rb, ci)
	case rb == NilBody || ra == rb:
		is.addContact(bodies, contacts, ra, ci)
	default:
		bodies.Get(rb).Island = ra
		is.addContact(bodies, contacts, ra, ci)
	}
}

// Unlink removes a contact from its island's list in O(1) and marks the
// island dirty. The island is not split here even if the contact was a
// bridge; Reconstruct restores exact connectivity later.
func (is *Islands) Unlink(bodies *bodyTable, contacts *contactTable, ci ContactIndex) {
	c := contacts.Get(ci)
	if c.Island == NilBody {
		return
	}
	is.removeContact(bodies, contacts, c.Island, ci)

	r := is.RepresentativeCompress(bodies, c.A.Body)
	if r == NilBody {
		r = is.RepresentativeCompress(bodies, c.B.Body)
	}
	if r != NilBody {
		root := bodies.Get(r)
		if !root.Dirty {
			root.Dirty = true
			is.dirty = append(is.dirty, r)
		}
	}
	c.Island = NilBody
	c.NextContact, c.PrevContact = NilContact, NilContact
}

func (is *Islands) addContact(bodies *bodyTable, contacts *contactTable, root BodyIndex, ci ContactIndex) {
	r := bodies.Get(root)
	c := contacts.Get(ci)
	assert(c.NextContact == NilContact && c.PrevContact == NilContact && r.HeadContact != ci,
		"island: contact already linked")
	c.Island = root
	c.PrevContact = NilContact
	c.NextContact = r.HeadContact
	if r.HeadContact != NilContact {
		contacts.Get(r.HeadContact).PrevContact = ci
	} else {
		r.TailContact = ci
	}
	r.HeadContact = ci
}

// removeContact detaches ci from the record that owns its list, which
// is c.Island (the root at link time, possibly stale as a root but
// still the holder of the head/tail).
func (is *Islands) removeContact(bodies *bodyTable, contacts *contactTable, owner BodyIndex, ci ContactIndex) {
	o := bodies.Get(owner)
	c := contacts.Get(ci)
	assert(c.NextContact != ci && c.PrevContact != ci, "island: contact linked to itself")
	if c.PrevContact != NilContact {
		contacts.Get(c.PrevContact).NextContact = c.NextContact
	} else {
		assert(o.HeadContact == ci, "island: unlinked contact not at its list head")
		o.HeadContact = c.NextContact
	}
	if c.NextContact != NilContact {
		contacts.Get(c.NextContact).PrevContact = c.PrevContact
	} else {
		o.TailContact = c.PrevContact
	}
}

// MergeRootIslands consolidates lists under true roots: every island
// record whose representative differs gets its body and contact lists
// spliced onto the representative's in O(1), then cleared. Keeps parent
// chains shallow between reconstructions.
func (is *Islands) MergeRootIslands(bodies *bodyTable, contacts *contactTable) {
	bodies.Each(func(bi BodyIndex, b *Body) {
		if b.State == StateStatic {
			return
		}
		if b.HeadBody == NilBody && b.HeadContact == NilContact {
			return // empty record, nothing to splice
		}
		r := is.RepresentativeCompress(bodies, bi)
		if r == bi {
			return
		}
		root := bodies.Get(r)

		if b.HeadBody != NilBody {
			tail := bodies.Get(b.TailBody)
			tail.NextBody = root.HeadBody
			if root.HeadBody != NilBody {
				bodies.Get(root.HeadBody).PrevBody = b.TailBody
			} else {
				root.TailBody = b.TailBody
			}
			root.HeadBody = b.HeadBody
			b.HeadBody, b.TailBody = NilBody, NilBody
		}
		if b.HeadContact != NilContact {
			tail := contacts.Get(b.TailContact)
			tail.NextContact = root.HeadContact
			if root.HeadContact != NilContact {
				contacts.Get(root.HeadContact).PrevContact = b.TailContact
			} else {
				root.TailContact = b.TailContact
			}
			for ci := b.HeadContact; ci != NilContact; {
				c := contacts.Get(ci)
				next := c.NextContact
				c.Island = r
				if ci == b.TailContact {
					break
				}
				ci = next
			}
			root.HeadContact = b.HeadContact
			b.HeadContact, b.TailContact = NilContact, NilContact
		}
		if b.Dirty {
			b.Dirty = false
			if !root.Dirty {
				root.Dirty = true
				is.dirty = append(is.dirty, r)
			}
		}
	})
}

// Reconstruct rebuilds exact connectivity for one potentially stale or
// merged island: all bodies and contacts tagged with it are collected,
// untagged, and re-partitioned by depth-first search over the
// body-to-contact adjacency map. Bodies reachable from different seeds
// become different islands. Static bodies terminate traversal without
// being visited. This is the only full-graph-cost operation; it runs
// only over islands touched by removed contacts.
func (is *Islands) Reconstruct(root BodyIndex, bodies *bodyTable, contacts *contactTable, contactMap map[BodyIndex][]ContactIndex) {
	r := bodies.Get(root)
	if r == nil {
		return
	}

	// The root sits in its own member list, so the body loop below wipes
	// r's contact head along with everyone else's. Capture it first.
	headContact := r.HeadContact

	is.scratchBodies = is.scratchBodies[:0]
	guard := bodies.Len() + 1
	for bi := r.HeadBody; bi != NilBody; {
		assert(guard > 0, "reconstruct: circular body list")
		guard--
		b := bodies.Get(bi)
		next := b.NextBody
		is.scratchBodies = append(is.scratchBodies, bi)
		b.Island = NilBody
		b.NextBody, b.PrevBody = NilBody, NilBody
		b.HeadBody, b.TailBody = NilBody, NilBody
		b.HeadContact, b.TailContact = NilContact, NilContact
		b.Dirty = false
		bi = next
	}

	is.scratchContacts = is.scratchContacts[:0]
	guard = contacts.Len() + 1
	for ci := headContact; ci != NilContact; {
		assert(guard > 0, "reconstruct: circular contact list")
		guard--
		c := contacts.Get(ci)
		next := c.NextContact
		is.scratchContacts = append(is.scratchContacts, ci)
		c.Island = NilBody
		c.NextContact, c.PrevContact = NilContact, NilContact
		ci = next
	}
	r.HeadBody, r.TailBody = NilBody, NilBody
	r.HeadContact, r.TailContact = NilContact, NilContact
	r.Dirty = false

	for _, seed := range is.scratchBodies {
		if bodies.Get(seed).Island != NilBody {
			continue // already claimed by an earlier seed
		}
		is.Register(bodies, seed)
		is.stack = append(is.stack[:0], seed)
		for len(is.stack) > 0 {
			bi := is.stack[len(is.stack)-1]
			is.stack = is.stack[:len(is.stack)-1]
			for _, ci := range contactMap[bi] {
				c := contacts.Get(ci)
				if c == nil {
					continue
				}
				if c.Island == NilBody {
					is.addContact(bodies, contacts, seed, ci)
				}
				nb := c.Other(bi)
				nbody := bodies.Get(nb)
				if nbody == nil || nbody.State == StateStatic {
					continue
				}
				if nbody.Island == NilBody {
					is.claimBody(bodies, seed, nb)
					is.stack = append(is.stack, nb)
				}
			}
		}
	}

	if Checked {
		for _, ci := range is.scratchContacts {
			assert(contacts.Get(ci).Island != NilBody,
				"reconstruct: contact left without an island")
		}
	}
}

// claimBody prepends nb to seed's member list and parents it directly.
func (is *Islands) claimBody(bodies *bodyTable, seed, nb BodyIndex) {
	root := bodies.Get(seed)
	b := bodies.Get(nb)
	b.Island = seed
	b.PrevBody = NilBody
	b.NextBody = root.HeadBody
	if root.HeadBody != NilBody {
		bodies.Get(root.HeadBody).PrevBody = nb
	} else {
		root.TailBody = nb
	}
	root.HeadBody = nb
}

// ReconstructDirty rebuilds every island marked dirty since the last
// call. Run MergeRootIslands first so dirty flags sit on true roots.
func (is *Islands) ReconstructDirty(bodies *bodyTable, contacts *contactTable, contactMap map[BodyIndex][]ContactIndex) {
	for _, r := range is.dirty {
		root := bodies.Get(r)
		if root == nil || !root.Dirty {
			continue // merged away, removed, or already rebuilt
		}
		is.Reconstruct(r, bodies, contacts, contactMap)
	}
	is.dirty = is.dirty[:0]
}

// RemoveBody detaches a body from island tracking prior to its removal
// from the world. All of the body's contacts must already be unlinked,
// and MergeRootIslands must have run so lists sit on true roots. If the
// body was itself the root, the record moves to another member and the
// remaining members are re-parented directly.
func (is *Islands) RemoveBody(bodies *bodyTable, contacts *contactTable, bi BodyIndex) {
	b := bodies.Get(bi)
	if b.State == StateStatic {
		return
	}
	owner := is.RepresentativeCompress(bodies, bi)
	o := bodies.Get(owner)

	if b.PrevBody != NilBody {
		bodies.Get(b.PrevBody).NextBody = b.NextBody
	} else if o.HeadBody == bi {
		o.HeadBody = b.NextBody
	}
	if b.NextBody != NilBody {
		bodies.Get(b.NextBody).PrevBody = b.PrevBody
	} else if o.TailBody == bi {
		o.TailBody = b.PrevBody
	}

	if owner == bi && o.HeadBody != NilBody {
		newRoot := o.HeadBody
		nr := bodies.Get(newRoot)
		nr.HeadBody, nr.TailBody = o.HeadBody, o.TailBody
		nr.HeadContact, nr.TailContact = o.HeadContact, o.TailContact
		nr.Dirty = o.Dirty
		if nr.Dirty {
			is.dirty = append(is.dirty, newRoot)
		}
		for mi := nr.HeadBody; mi != NilBody; mi = bodies.Get(mi).NextBody {
			bodies.Get(mi).Island = newRoot
		}
		for ci := nr.HeadContact; ci != NilContact; ci = contacts.Get(ci).NextContact {
			contacts.Get(ci).Island = newRoot
		}
	}

	b.Island = NilBody
	b.NextBody, b.PrevBody = NilBody, NilBody
	b.HeadBody, b.TailBody = NilBody, NilBody
	b.HeadContact, b.TailContact = NilContact, NilContact
	b.Dirty = false
}

// EachIslandBody visits the members of the island rooted at root.
func (is *Islands) EachIslandBody(bodies *bodyTable, root BodyIndex, fn func(BodyIndex)) {
	for bi := bodies.Get(root).HeadBody; bi != NilBody; bi = bodies.Get(bi).NextBody {
		fn(bi)
	}
}

// EachIslandContact visits the contacts of the island rooted at root.
func (is *Islands) EachIslandContact(bodies *bodyTable, contacts *contactTable, root BodyIndex, fn func(ContactIndex)) {
	for ci := bodies.Get(root).HeadContact; ci != NilContact; ci = contacts.Get(ci).NextContact {
		fn(ci)
	}
}
