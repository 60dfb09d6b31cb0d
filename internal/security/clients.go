package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","orders.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"marmita-storefront": {ID: "marmita-storefront", Secret: "storefront-secret", Perms: []string{"orders.read"}, Enabled: true},
	"marmita-kitchen":    {ID: "marmita-kitchen", Secret: "kitchen-secret", Perms: []string{"orders.read", "orders.write"}, Enabled: true},
	"svc-analytics":      {ID: "svc-analytics", Secret: "ana-secret", Perms: []string{"orders.read"}, Enabled: true},
}
