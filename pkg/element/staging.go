// SPDX-License-Identifier: MPL-2.0

package element

// LatestStaged scans ops from the end and returns the most recent version of
// the record with the given id, along with the status of that operation.
// Deleted records are reported with their last known content and
// StatusDeleted. The boolean is false when ops never touched the id.
func LatestStaged(ops []Operation, id string) (Record, Status, bool) {
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch {
		case op.NewRecord != nil && op.NewRecord.ID == id:
			return *op.NewRecord, op.Status, true
		case op.Status == StatusDeleted && op.OldRecord != nil && op.OldRecord.ID == id:
			return *op.OldRecord, StatusDeleted, true
		}
	}
	return Record{}, "", false
}

// Change is the net effect of a staged sequence on one record, as handed to a
// store on commit.
type Change struct {
	Status Status
	Record Record
}

// Reduce folds an ordered sequence of operations into one net change per
// record id, in order of first appearance. A record created then updated is
// reported as created with its final content; a record created then deleted
// disappears entirely.
func Reduce(ops []Operation) []Change {
	type entry struct {
		first Status
		last  Status
		rec   Record
	}

	var order []string
	entries := make(map[string]*entry)

	for _, op := range ops {
		var rec Record
		switch {
		case op.NewRecord != nil:
			rec = *op.NewRecord
		case op.OldRecord != nil:
			rec = *op.OldRecord
		default:
			continue
		}

		e, ok := entries[rec.ID]
		if !ok {
			e = &entry{first: op.Status}
			entries[rec.ID] = e
			order = append(order, rec.ID)
		}
		e.last = op.Status
		e.rec = rec
	}

	changes := make([]Change, 0, len(order))
	for _, id := range order {
		e := entries[id]
		switch {
		case e.first == StatusCreated && e.last == StatusDeleted:
			continue
		case e.last == StatusDeleted:
			changes = append(changes, Change{Status: StatusDeleted, Record: e.rec})
		case e.first == StatusCreated:
			changes = append(changes, Change{Status: StatusCreated, Record: e.rec})
		case e.last == StatusUnchanged:
			continue
		default:
			changes = append(changes, Change{Status: StatusUpdated, Record: e.rec})
		}
	}
	return changes
}
