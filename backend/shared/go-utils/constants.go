package utils

const (
	OrganizationName                      = "RentFlow"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)

// Kenyan MSISDN layout: country code followed by 9 subscriber digits.
const (
	KenyaCountryCode      = "254"
	KenyaSubscriberDigits = 9
)
