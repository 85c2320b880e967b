package schema

// Resolution strategies the engine's DNS module accepts.
var dnsStrategies = []string{"prefer_ipv4", "prefer_ipv6", "ipv4_only", "ipv6_only"}

// rules is the compiled-in rule table for the flat sections. The reality
// section has its own two-phase check in reality.go.
var rules = map[string]Rule{
	SectionInbound: {
		Section: SectionInbound,
		Fields: []Field{
			{Name: "type", Kind: KindString, Required: true},
			{Name: "tag", Kind: KindString, Required: true},
			{Name: "listen", Kind: KindString},
			{Name: "listen_port", Kind: KindPort, Required: true},
			{Name: "users", Kind: KindArray},
			{Name: "tls", Kind: KindObject},
			{Name: "sniff", Kind: KindBool},
			{Name: "sniff_override_destination", Kind: KindBool},
		},
	},
	SectionOutbound: {
		Section: SectionOutbound,
		Fields: []Field{
			{Name: "type", Kind: KindString, Required: true},
			{Name: "tag", Kind: KindString, Required: true},
			{Name: "server", Kind: KindString},
			{Name: "server_port", Kind: KindPort},
			{Name: "uuid", Kind: KindString},
			{Name: "flow", Kind: KindString},
			{Name: "tls", Kind: KindObject},
			// domain_strategy on direct outbounds was removed upstream;
			// keep it as a typed optional for older engines
			{Name: "domain_strategy", Kind: KindStringEnum, Enum: dnsStrategies},
		},
	},
	SectionDNS: {
		Section: SectionDNS,
		Fields: []Field{
			{Name: "servers", Kind: KindArray, Required: true},
			{Name: "rules", Kind: KindArray},
			{Name: "final", Kind: KindString},
			{Name: "strategy", Kind: KindStringEnum, Enum: dnsStrategies},
			{Name: "independent_cache", Kind: KindBool},
			// EDNS client subnet support landed in 1.9.0
			{Name: "client_subnet", Kind: KindString, MinVersion: "1.9.0"},
		},
	},
	SectionRoute: {
		Section: SectionRoute,
		Fields: []Field{
			// must be an array even when empty
			{Name: "rules", Kind: KindArray, Required: true},
			{Name: "final", Kind: KindString},
			{Name: "auto_detect_interface", Kind: KindBool},
			{Name: "default_interface", Kind: KindString},
			// rule_set replaced geoip/geosite in 1.8.0; older engines
			// reject the field so the rule only applies from there on
			{Name: "rule_set", Kind: KindArray, MinVersion: "1.8.0"},
		},
	},
}
