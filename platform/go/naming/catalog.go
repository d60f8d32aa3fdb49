package naming

// Collection maps a logical collection name to the Cosmos database hosting
// it and the partition key path used when the container is created.
type Collection struct {
	Name             string
	Database         string
	PartitionKeyPath string
}

// Collections is the authoritative list of document collections every tenant
// owns. Provisioning writes one App Configuration key per entry and
// decommission enumerates exactly this list; a collection missing here is
// invisible to teardown.
func Collections() []Collection {
	return []Collection{
		{Name: "telemetry", Database: "iot", PartitionKeyPath: "/deviceId"},
		{Name: "twin-change", Database: "iot", PartitionKeyPath: "/deviceId"},
		{Name: "lifecycle", Database: "iot", PartitionKeyPath: "/deviceId"},
		{Name: "alarms", Database: "iot", PartitionKeyPath: "/deviceId"},
		{Name: "pcs", Database: "pcs", PartitionKeyPath: "/id"},
	}
}

// ContainerSuffixes lists the blob containers every tenant owns, as suffixes
// appended to the full tenant id. The empty suffix is the tenant's primary
// container.
func ContainerSuffixes() []string {
	return []string{"", "-iot-file-upload"}
}

// AlarmsCollection returns the catalog entry backing the alerting job.
func AlarmsCollection() Collection {
	for _, c := range Collections() {
		if c.Name == "alarms" {
			return c
		}
	}
	panic("alarms collection missing from catalog")
}
