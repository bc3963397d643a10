package lottery

// MaskPhone hides the middle of a 10-digit phone number for public winner
// listings: "9876543210" becomes "987xxxxx21". Shorter values are returned
// fully masked rather than leaking digits.
func MaskPhone(phone string) string {
	if len(phone) != 10 {
		return "xxxxxxxxxx"
	}
	return phone[:3] + "xxxxx" + phone[8:]
}
