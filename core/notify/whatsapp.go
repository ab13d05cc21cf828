package notify

import (
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const whatsAppBaseURL = "https://wa.me/"

// NormalizePhone returns the E.164 digits of phone, without "+".
// Numbers without an international prefix are read as numbers of region (ISO 3166 code, e.g. "KE").
// It returns "" when phone is not a possible number.
func NormalizePhone(phone, region string) string {
	num, err := phonenumbers.Parse(strings.TrimSpace(phone), strings.ToUpper(region))
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return ""
	}
	digits := strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return digits
}

// WhatsAppLink builds a click-to-chat link opening a chat with phone, prefilled with message.
// It returns "" when phone is not a usable number.
func WhatsAppLink(phone, message, region string) string {
	digits := NormalizePhone(phone, region)
	if digits == "" {
		return ""
	}
	link := whatsAppBaseURL + digits
	if message != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	}
	return link
}
