package compute

// Server statuses reported by the compute API.
const (
	StatusActive           = "ACTIVE"
	StatusBuild            = "BUILD"
	StatusError            = "ERROR"
	StatusVerifyResize     = "VERIFY_RESIZE"
	StatusResize           = "RESIZE"
	StatusSuspended        = "SUSPENDED"
	StatusShelved          = "SHELVED"
	StatusShelvedOffloaded = "SHELVED_OFFLOADED"
	StatusMigrating        = "MIGRATING"

	// StatusDeleted is a waiter target, not an API status: the waiter
	// treats a 404 as having reached it.
	StatusDeleted = "DELETED"
)

// Volume statuses reported by the block storage API.
const (
	VolumeAvailable = "available"
	VolumeInUse     = "in-use"
	VolumeError     = "error"
)

// Server is a compute server record. Create responses carry only a subset of
// the fields; Get and List detail responses fill the rest.
type Server struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Status    string               `json:"status"`
	TaskState string               `json:"OS-EXT-STS:task_state,omitempty"`
	Flavor    FlavorRef            `json:"flavor,omitempty"`
	Fault     *Fault               `json:"fault,omitempty"`
	Addresses map[string][]Address `json:"addresses,omitempty"`
	AdminPass string               `json:"adminPass,omitempty"`
}

// Fault carries the failure details of a server in ERROR.
type Fault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// FlavorRef identifies a flavor inside a server record.
type FlavorRef struct {
	ID string `json:"id"`
}

// Address is one network address of a server.
type Address struct {
	Addr    string `json:"addr"`
	Type    string `json:"OS-EXT-IPS:type,omitempty"`
	Version int    `json:"version,omitempty"`
}

// CreateServerRequest is the body of a boot request. Zero-valued optional
// fields are left out of the wire encoding.
type CreateServerRequest struct {
	Name                 string               `json:"name"`
	ImageRef             string               `json:"imageRef"`
	FlavorRef            string               `json:"flavorRef"`
	KeyName              string               `json:"key_name,omitempty"`
	UserData             string               `json:"user_data,omitempty"`
	MinCount             int                  `json:"min_count,omitempty"`
	MaxCount             int                  `json:"max_count,omitempty"`
	SecurityGroups       []SecurityGroup      `json:"security_groups,omitempty"`
	Networks             []Network            `json:"networks,omitempty"`
	BlockDeviceMappingV2 []BlockDeviceMapping `json:"block_device_mapping_v2,omitempty"`
	AvailabilityZone     string               `json:"availability_zone,omitempty"`
}

// SecurityGroup names a security group to attach at boot.
type SecurityGroup struct {
	Name string `json:"name"`
}

// Network selects a network or port for the server's NIC.
type Network struct {
	UUID string `json:"uuid,omitempty"`
	Port string `json:"port,omitempty"`
}

// BlockDeviceMapping describes one entry of block_device_mapping_v2.
type BlockDeviceMapping struct {
	UUID                string `json:"uuid"`
	SourceType          string `json:"source_type"`
	DestinationType     string `json:"destination_type"`
	BootIndex           int    `json:"boot_index"`
	DeleteOnTermination bool   `json:"delete_on_termination"`
}

// Volume is a block storage volume record.
type Volume struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Size     int    `json:"size"`
	Bootable string `json:"bootable,omitempty"`
}

// CreateVolumeRequest is the body of a volume create request. ImageRef makes
// the volume bootable from that image.
type CreateVolumeRequest struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	ImageRef string `json:"imageRef,omitempty"`
}

// Console is the result of a get-console request: the URL a console client
// connects to, token included in the query.
type Console struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
