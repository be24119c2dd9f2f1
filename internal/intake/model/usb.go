package model

// USBBeacon is a callback from a USB-drop payload. It is persisted as-is;
// no classification runs on beacons.
type USBBeacon struct {
	USBStickID  string `json:"usb_stick_id" binding:"required"`
	Hostname    string `json:"hostname"     binding:"required"`
	Username    string `json:"username"     binding:"required"`
	InternalIP  string `json:"internal_ip"  binding:"required"`
	PayloadName string `json:"payload_name" binding:"required"`
	PublicIP    string `json:"public_ip"`
	OSInfo      string `json:"os_info"`
}

// Details returns the nested detail bag stored alongside the top-level
// beacon columns.
func (b *USBBeacon) Details() map[string]any {
	return map[string]any{
		"public_ip": b.PublicIP,
		"os_info":   b.OSInfo,
	}
}
