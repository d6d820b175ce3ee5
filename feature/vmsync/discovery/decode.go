package discovery

import (
	"encoding/json"
	"io"

	"infra-inventory/core/utils"
	"infra-inventory/feature/vmsync/models"
)

// wireResult is the loosely typed response body. Collectors differ in how they
// encode numbers and in the casing of field names.
type wireResult struct {
	Success     *bool            `json:"success"`
	RecordCount any              `json:"recordCount"`
	Records     []map[string]any `json:"records"`
}

// Accepted spellings per field, first match wins.
var (
	externalIDKeys = []string{"externalId", "external_id", "moid", "vmId"}
	parentIDKeys   = []string{"parentId", "parent_id", "serverId", "server_id"}
	nameKeys       = []string{"name", "vmName"}
	ipKeys         = []string{"ip", "ipAddress", "ip_address"}
	guestOSKeys    = []string{"guestOs", "guest_os", "guestOS"}
	powerStateKeys = []string{"powerState", "power_state"}
	memoryKeys     = []string{"memoryMB", "memory_mb", "memoryMb"}
	cpuKeys        = []string{"cpuCount", "cpu_count", "numCpu"}
	hostMoidKeys   = []string{"hostMoid", "host_moid"}
)

// decodeResult reads a discovery response. A missing success flag counts as
// success and a missing records list as an empty batch.
func decodeResult(r io.Reader) (*models.DiscoveryResult, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var wire wireResult
	if err := dec.Decode(&wire); err != nil {
		return nil, err
	}

	result := &models.DiscoveryResult{
		Success: wire.Success == nil || *wire.Success,
		Records: make([]models.DiscoveredVM, 0, len(wire.Records)),
	}
	for _, raw := range wire.Records {
		if raw == nil {
			continue
		}
		result.Records = append(result.Records, decodeVM(raw))
	}

	if n, ok := utils.ToIntOK(wire.RecordCount); ok {
		result.RecordCount = n
	} else {
		result.RecordCount = len(result.Records)
	}
	return result, nil
}

func decodeVM(raw map[string]any) models.DiscoveredVM {
	return models.DiscoveredVM{
		ExternalID: stringField(raw, externalIDKeys),
		ParentID:   stringField(raw, parentIDKeys),
		Name:       stringField(raw, nameKeys),
		IP:         stringField(raw, ipKeys),
		GuestOS:    stringField(raw, guestOSKeys),
		PowerState: stringField(raw, powerStateKeys),
		MemoryMB:   intField(raw, memoryKeys),
		CPUCount:   intField(raw, cpuKeys),
		HostMoid:   stringField(raw, hostMoidKeys),
	}
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw map[string]any, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

func intField(raw map[string]any, keys []string) *int {
	v, ok := lookup(raw, keys)
	if !ok {
		return nil
	}
	return utils.ToIntPtr(v)
}
