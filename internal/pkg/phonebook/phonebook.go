// Package phonebook is a contact book indexed by a digit trie, so contacts
// can be found by a number prefix or by a number pattern with wildcard
// digits.
package phonebook

import (
	"errors"
	"slices"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/endorses/wildscan/internal/pkg/constants"
)

var (
	// ErrInvalidNumber is returned for numbers that are not digit strings.
	ErrInvalidNumber = errors.New("invalid phone number")

	// ErrEmptyFamily is returned when a contact has no family name.
	ErrEmptyFamily = errors.New("family name is required")
)

// Contact is one entry of the book.
type Contact struct {
	Family string `yaml:"family" json:"family"`
	Number string `yaml:"number" json:"number"`
}

// digitNode is a trie node. families holds every family whose number passes
// through the node, so the families under a prefix are read off one node.
type digitNode struct {
	children [10]int32 // 0 means no child; the root is never a child
	families map[string]struct{}
}

// Book maps families to phone numbers. It is safe for concurrent use.
type Book struct {
	mu sync.RWMutex

	nodes   []digitNode
	numbers map[string]string // family -> number
	owners  map[string]string // number -> family

	// filter rejects unknown numbers before the map lookup. It is never
	// cleared on removal; a stale bit only costs the exact lookup.
	filter   *bloom.BloomFilter
	capacity uint
}

// New returns an empty book.
func New() *Book {
	b := &Book{
		nodes:    []digitNode{{families: make(map[string]struct{})}},
		numbers:  make(map[string]string),
		owners:   make(map[string]string),
		capacity: constants.PhoneBookBloomCapacity,
	}
	b.filter = bloom.NewWithEstimates(b.capacity, constants.PhoneBookBloomFPRate)
	return b
}

// Add stores number under family. A family has one number: adding it again
// moves it to the new number. A number has one owner: adding it for another
// family removes the previous owner from the book.
func (b *Book) Add(number, family string) error {
	if family == "" {
		return ErrEmptyFamily
	}
	n, err := Normalize(number)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.numbers[family]; ok {
		if old == n {
			return nil
		}
		b.unlink(old, family)
		delete(b.owners, old)
	}
	if prev, ok := b.owners[n]; ok {
		b.unlink(n, prev)
		delete(b.numbers, prev)
	}

	b.link(n, family)
	b.numbers[family] = n
	b.owners[n] = family

	if uint(len(b.owners)) > b.capacity {
		b.growFilter()
	}
	b.filter.AddString(n)

	return nil
}

// link records family on every node along number's path, creating nodes
// as needed.
func (b *Book) link(number, family string) {
	cur := int32(0)
	b.nodes[cur].families[family] = struct{}{}
	for i := 0; i < len(number); i++ {
		d := number[i] - '0'
		next := b.nodes[cur].children[d]
		if next == 0 {
			next = int32(len(b.nodes))
			b.nodes = append(b.nodes, digitNode{families: make(map[string]struct{})})
			b.nodes[cur].children[d] = next
		}
		cur = next
		b.nodes[cur].families[family] = struct{}{}
	}
}

// unlink removes family from every node along number's path.
func (b *Book) unlink(number, family string) {
	cur := int32(0)
	delete(b.nodes[cur].families, family)
	for i := 0; i < len(number); i++ {
		cur = b.nodes[cur].children[number[i]-'0']
		if cur == 0 {
			return
		}
		delete(b.nodes[cur].families, family)
	}
}

func (b *Book) growFilter() {
	b.capacity *= 2
	b.filter = bloom.NewWithEstimates(b.capacity, constants.PhoneBookBloomFPRate)
	for n := range b.owners {
		b.filter.AddString(n)
	}
}

// PhoneByFamily returns the number stored for family.
func (b *Book) PhoneByFamily(family string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.numbers[family]
	return n, ok
}

// HasNumber reports whether number belongs to some contact.
func (b *Book) HasNumber(number string) bool {
	n, err := Normalize(number)
	if err != nil {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.filter.TestString(n) {
		return false
	}
	_, ok := b.owners[n]
	return ok
}

// FamiliesByPrefix returns the families whose number starts with prefix,
// sorted. An empty prefix returns every family.
func (b *Book) FamiliesByPrefix(prefix string) []string {
	if !isDigits(prefix) {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	cur := int32(0)
	for i := 0; i < len(prefix); i++ {
		cur = b.nodes[cur].children[prefix[i]-'0']
		if cur == 0 {
			return nil
		}
	}
	return sortedFamilies(b.nodes[cur].families)
}

// SearchPattern returns the families whose number starts with a digit
// string matching pattern, sorted. Digits of pattern match themselves; any
// other byte matches any one digit.
func (b *Book) SearchPattern(pattern string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	candidates := []int32{0}
	for i := 0; i < len(pattern) && len(candidates) > 0; i++ {
		c := pattern[i]
		var next []int32
		for _, cur := range candidates {
			children := &b.nodes[cur].children
			if c >= '0' && c <= '9' {
				if child := children[c-'0']; child != 0 {
					next = append(next, child)
				}
				continue
			}
			for _, child := range children {
				if child != 0 {
					next = append(next, child)
				}
			}
		}
		candidates = next
	}

	found := make(map[string]struct{})
	for _, cur := range candidates {
		for f := range b.nodes[cur].families {
			found[f] = struct{}{}
		}
	}
	return sortedFamilies(found)
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.numbers)
}

// Contacts returns every contact sorted by family.
func (b *Book) Contacts() []Contact {
	b.mu.RLock()
	defer b.mu.RUnlock()

	contacts := make([]Contact, 0, len(b.numbers))
	for family, number := range b.numbers {
		contacts = append(contacts, Contact{Family: family, Number: number})
	}
	slices.SortFunc(contacts, func(x, y Contact) int {
		switch {
		case x.Family < y.Family:
			return -1
		case x.Family > y.Family:
			return 1
		}
		return 0
	})
	return contacts
}

func sortedFamilies(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	families := make([]string, 0, len(set))
	for f := range set {
		families = append(families, f)
	}
	slices.Sort(families)
	return families
}
