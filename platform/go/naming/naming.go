// Package naming derives the per-tenant resource identifiers used across the
// platform. Derivation is deterministic and performs no collision detection;
// uniqueness is assumed from tenant-id uniqueness.
package naming

import "fmt"

const (
	iotHubNameFormat          = "iothub-%s"
	dpsNameFormat             = "dps-%s"
	streamAnalyticsNameFormat = "sa-%s"
)

// prefix returns the first 8 characters of the tenant id. Hub, DPS and
// Stream Analytics names are length-limited by the platform, so only the id
// prefix is used; two tenants sharing an 8-character prefix would collide.
func prefix(tenantID string) string {
	if len(tenantID) < 8 {
		return tenantID
	}
	return tenantID[:8]
}

// IoTHubName returns the tenant's IoT Hub name, e.g. "iothub-abcdef12".
func IoTHubName(tenantID string) string {
	return fmt.Sprintf(iotHubNameFormat, prefix(tenantID))
}

// DPSName returns the tenant's Device Provisioning Service name.
func DPSName(tenantID string) string {
	return fmt.Sprintf(dpsNameFormat, prefix(tenantID))
}

// StreamAnalyticsJobName returns the tenant's alerting job name.
func StreamAnalyticsJobName(tenantID string) string {
	return fmt.Sprintf(streamAnalyticsNameFormat, prefix(tenantID))
}

// CollectionID returns the physical collection id for a logical collection,
// using the full tenant id: "{collection}-{tenantId}".
func CollectionID(collection, tenantID string) string {
	return collection + "-" + tenantID
}

// CollectionKey returns the App Configuration key under which a tenant's
// collection id is registered: "tenant:{tenantId}:{collection}-collection".
func CollectionKey(tenantID, collection string) string {
	return fmt.Sprintf("tenant:%s:%s-collection", tenantID, collection)
}

// ContainerName returns a tenant-scoped blob container name (full tenant id
// plus a fixed suffix).
func ContainerName(tenantID, suffix string) string {
	return tenantID + suffix
}
