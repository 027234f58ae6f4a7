package display

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// ModuleID identifies a content module that can occupy display slides.
type ModuleID string

const (
	ModuleAnnouncements ModuleID = model.KindAnnouncement
	ModuleAyatHadith    ModuleID = model.KindAyatHadith
	ModuleEvents        ModuleID = model.KindEvent
	ModulePosts         ModuleID = model.KindPost
)

// Modules lists every module in default rank order.
var Modules = []ModuleID{ModuleAnnouncements, ModuleAyatHadith, ModuleEvents, ModulePosts}

func ParseModuleID(s string) (ModuleID, bool) {
	id := ModuleID(s)
	return id, slices.Contains(Modules, id)
}

// ModuleOrder maps modules to display ranks; lower ranks show first.
type ModuleOrder map[ModuleID]int

// DefaultModuleOrder returns a fresh copy of the built-in ranks.
func DefaultModuleOrder() ModuleOrder {
	return ModuleOrder{
		ModuleAnnouncements: 1,
		ModuleAyatHadith:    2,
		ModuleEvents:        3,
		ModulePosts:         4,
	}
}

// Merge returns a new order where every rank in saved overrides o.
func (o ModuleOrder) Merge(saved ModuleOrder) ModuleOrder {
	out := make(ModuleOrder, len(o)+len(saved))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range saved {
		out[k] = v
	}
	return out
}

// Validate checks that ranks are unique. Grouping assumes this holds; it is
// enforced on the settings write path.
func (o ModuleOrder) Validate() error {
	seen := make(map[int]ModuleID, len(o))
	for id, rank := range o {
		if _, ok := ParseModuleID(string(id)); !ok {
			return fmt.Errorf("unknown module %q", id)
		}
		if other, dup := seen[rank]; dup {
			return fmt.Errorf("modules %q and %q share order %d", other, id, rank)
		}
		seen[rank] = id
	}
	return nil
}

func (o ModuleOrder) rank(id ModuleID) int {
	if r, ok := o[id]; ok {
		return r
	}
	if r, ok := DefaultModuleOrder()[id]; ok {
		return r
	}
	return math.MaxInt
}

// OrderFromSettings turns a saved module list into the effective order and
// the set of enabled modules. A nil list enables every module at default rank.
func OrderFromSettings(saved []model.ModuleSetting) (ModuleOrder, map[ModuleID]bool) {
	order := DefaultModuleOrder()
	enabled := make(map[ModuleID]bool, len(Modules))
	if saved == nil {
		for _, id := range Modules {
			enabled[id] = true
		}
		return order, enabled
	}

	overrides := make(ModuleOrder, len(saved))
	for _, m := range saved {
		id, ok := ParseModuleID(m.ID)
		if !ok {
			continue
		}
		overrides[id] = m.Order
		if m.Enabled {
			enabled[id] = true
		}
	}
	return order.Merge(overrides), enabled
}

// Collections holds the already-fetched items for each module.
type Collections map[ModuleID][]model.Content

// ContentGroup is one module's items paired with its rank.
type ContentGroup struct {
	Module ModuleID
	Order  int
	items  []model.Content
}

// Items yields the group's items in display order.
func (g ContentGroup) Items() iter.Seq[model.Content] {
	return func(yield func(model.Content) bool) {
		for _, it := range g.items {
			if !yield(it) {
				return
			}
		}
	}
}

func (g ContentGroup) Len() int { return len(g.items) }

// SortItems returns a copy of items ordered by display_order ascending. Items
// without an order go after every ordered item; two unordered items compare
// by creation time. Ties keep their input order.
func SortItems(items []model.Content) []model.Content {
	out := slices.Clone(items)
	slices.SortStableFunc(out, compareItems)
	return out
}

func compareItems(a, b model.Content) int {
	switch {
	case a.DisplayOrder != nil && b.DisplayOrder != nil:
		return cmp.Compare(*a.DisplayOrder, *b.DisplayOrder)
	case a.DisplayOrder != nil:
		return -1
	case b.DisplayOrder != nil:
		return 1
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

// BuildContentGroups sorts every collection, pairs it with its rank and
// returns the non-empty groups in rank order.
func BuildContentGroups(order ModuleOrder, collections Collections) []ContentGroup {
	groups := make([]ContentGroup, 0, len(collections))
	for _, id := range Modules {
		items := collections[id]
		if len(items) == 0 {
			continue
		}
		groups = append(groups, ContentGroup{
			Module: id,
			Order:  order.rank(id),
			items:  SortItems(items),
		})
	}
	slices.SortStableFunc(groups, func(a, b ContentGroup) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return groups
}
