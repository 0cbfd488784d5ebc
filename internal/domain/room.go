package domain

// Role identifies which side of a signaling room a message belongs to.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Permission levels a host can grant per tool.
const (
	PermissionReadWrite = "rw"
	PermissionRead      = "r"
	PermissionNone      = "none"
)

// Room is the server-side state of one WebRTC signaling rendezvous.
type Room struct {
	ID          string            `json:"id"`
	HostOffer   *string           `json:"host_offer"`
	GuestAnswer *string           `json:"guest_answer"`
	HostICE     []string          `json:"host_ice"`
	GuestICE    []string          `json:"guest_ice"`
	Permissions map[string]string `json:"permissions"`
}

// NewRoom returns a room with the default tool permissions.
func NewRoom(id string) *Room {
	return &Room{
		ID:       id,
		HostICE:  []string{},
		GuestICE: []string{},
		Permissions: map[string]string{
			"paint": PermissionReadWrite,
			"board": PermissionReadWrite,
			"sql":   PermissionNone,
		},
	}
}
