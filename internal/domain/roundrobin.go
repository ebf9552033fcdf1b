package domain

const noneServed = -1

// RoundRobin is the per-room fairness cursor. Participants are kept in first-seen
// order and never removed; lastServed points at whoever last had an item promoted.
type RoundRobin struct {
	participants []string
	index        map[string]int
	lastServed   int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{
		index:      make(map[string]int),
		lastServed: noneServed,
	}
}

func (rr *RoundRobin) Participants() []string {
	return append([]string(nil), rr.participants...)
}

// LastServed returns the cursor name, or "" when nobody has been served yet.
func (rr *RoundRobin) LastServed() string {
	if rr.lastServed == noneServed {
		return ""
	}

	return rr.participants[rr.lastServed]
}

func (rr *RoundRobin) Contains(name string) bool {
	_, ok := rr.index[name]
	return ok
}

func (rr *RoundRobin) Add(name string) {
	if rr.Contains(name) {
		return
	}

	rr.index[name] = len(rr.participants)
	rr.participants = append(rr.participants, name)
}

// Rename keeps the participant's position, so the cursor stays valid.
func (rr *RoundRobin) Rename(oldName, newName string) {
	i, ok := rr.index[oldName]
	if !ok {
		rr.Add(newName)
		return
	}

	delete(rr.index, oldName)
	rr.participants[i] = newName
	rr.index[newName] = i
}

// Served moves the cursor to name. Unknown names leave the cursor untouched.
func (rr *RoundRobin) Served(name string) {
	if i, ok := rr.index[name]; ok {
		rr.lastServed = i
	}
}

// Schedule interleaves queue by contributor, starting with the participant after
// the cursor. Each contributor keeps the relative order of their own items.
func (rr *RoundRobin) Schedule(queue []QueueItem) []QueueItem {
	groups := make(map[string][]QueueItem)
	var orphans []QueueItem
	for _, item := range queue {
		if !rr.Contains(item.AddedBy) {
			orphans = append(orphans, item)
			continue
		}
		groups[item.AddedBy] = append(groups[item.AddedBy], item)
	}

	if len(groups) < 2 {
		return queue
	}

	n := len(rr.participants)
	start := rr.lastServed + 1
	remaining := len(queue) - len(orphans)
	out := make([]QueueItem, 0, len(queue))
	for remaining > 0 {
		for i := range n {
			name := rr.participants[(start+i)%n]
			items := groups[name]
			if len(items) == 0 {
				continue
			}

			out = append(out, items[0])
			groups[name] = items[1:]
			remaining--
		}
	}

	// items from unknown contributors keep their relative order at the tail
	return append(out, orphans...)
}
