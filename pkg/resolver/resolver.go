package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/storage"
)

// Resolver compiles device filters against the inventory read-model.
type Resolver struct {
	inventory storage.InventoryStore
}

// New returns a Resolver backed by the given inventory store.
func New(inventory storage.InventoryStore) *Resolver {
	return &Resolver{inventory: inventory}
}

// Resolve returns the devices matching filter, ordered deterministically
// by (site, name), truncated to filter.MaxDevices if set. An empty result
// is not itself an error; callers decide whether an empty device set
// should fail the job (collectorerr.InventoryEmpty).
func (r *Resolver) Resolve(filter domain.DeviceFilter) ([]*domain.Device, error) {
	all, err := r.inventory.ListDevices()
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "list devices", err)
	}

	wantStatus := filter.Status
	if wantStatus == "" {
		wantStatus = domain.DeviceStatusActive
	}

	var nameRe *regexp.Regexp
	if filter.NameRegex != "" {
		nameRe, err = regexp.Compile(filter.NameRegex)
		if err != nil {
			return nil, collectorerr.Wrap(collectorerr.ConfigError, "compile name_regex", err)
		}
	}

	matched := make([]*domain.Device, 0, len(all))
	for _, d := range all {
		if !match(d, filter, wantStatus, nameRe) {
			continue
		}
		matched = append(matched, d)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SiteID != matched[j].SiteID {
			return matched[i].SiteID < matched[j].SiteID
		}
		return matched[i].Name < matched[j].Name
	})

	if filter.MaxDevices > 0 && len(matched) > filter.MaxDevices {
		matched = matched[:filter.MaxDevices]
	}

	log.WithComponent("resolver").Debug().
		Int("matched", len(matched)).
		Int("inventory_size", len(all)).
		Msg("resolved device filter")

	return matched, nil
}

func match(d *domain.Device, f domain.DeviceFilter, wantStatus domain.DeviceStatus, nameRe *regexp.Regexp) bool {
	if !d.Eligible(wantStatus) {
		return false
	}
	if f.SiteID != "" && d.SiteID != f.SiteID {
		return false
	}
	if f.RoleID != "" && d.RoleID != f.RoleID {
		return false
	}
	if f.PlatformID != "" && d.Platform.ID != f.PlatformID {
		return false
	}
	if f.VendorSubstring != "" &&
		!strings.Contains(strings.ToLower(d.Platform.Manufacturer), strings.ToLower(f.VendorSubstring)) {
		return false
	}
	if nameRe != nil && !nameRe.MatchString(d.Name) {
		return false
	}
	return true
}
