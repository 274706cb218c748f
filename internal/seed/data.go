package seed

const (
	CommissionTiersCollection = "commission_tiers"
	CategoriesCollection      = "categories"
	SystemConfigCollection    = "system_config"
	RolePermissionsCollection = "role_permissions"

	AppConfigDoc = "app_config"
)

type CommissionTier struct {
	Role          string  `firestore:"role"`
	Name          string  `firestore:"name"`
	BadgeText     string  `firestore:"badgeText"`
	BadgeColor    string  `firestore:"badgeColor"`
	MinProducts   int     `firestore:"minProducts"`
	MinTotalValue float64 `firestore:"minTotalValue"`
	RatePercent   float64 `firestore:"ratePercent"`
	Order         int     `firestore:"order"`
}

// DocID is <role>_<tier>.
func (t CommissionTier) DocID() string { return t.Role + "_" + t.Name }

type Category struct {
	Name        string
	Description string
}

type RolePermissions struct {
	Permissions map[string]bool `firestore:"permissions"`
	Description string          `firestore:"description"`
}

func tier(role, name string, minProducts int, minTotal, rate float64, order int) CommissionTier {
	title := map[string]string{"bronze": "Bronze", "silver": "Silver", "gold": "Gold", "platinum": "Platinum"}[name]
	roleTitle := map[string]string{"engineer": "Engineer", "supplier": "Supplier"}[role]
	return CommissionTier{
		Role:          role,
		Name:          name,
		BadgeText:     title + " " + roleTitle,
		BadgeColor:    name,
		MinProducts:   minProducts,
		MinTotalValue: minTotal,
		RatePercent:   rate,
		Order:         order,
	}
}

var DefaultCommissionTiers = []CommissionTier{
	tier("engineer", "bronze", 5, 1000, 0.02, 1),
	tier("engineer", "silver", 15, 5000, 0.04, 2),
	tier("engineer", "gold", 30, 15000, 0.06, 3),
	tier("engineer", "platinum", 50, 30000, 0.08, 4),
	tier("supplier", "bronze", 10, 2000, 0.015, 1),
	tier("supplier", "silver", 25, 10000, 0.03, 2),
	tier("supplier", "gold", 50, 30000, 0.045, 3),
	tier("supplier", "platinum", 100, 75000, 0.06, 4),
}

var DefaultCategories = []Category{
	{"Electronics", "Electronic devices and components"},
	{"Construction", "Construction materials and tools"},
	{"Automotive", "Automotive parts and accessories"},
	{"Industrial", "Industrial equipment and supplies"},
	{"Agriculture", "Agricultural tools and equipment"},
	{"Healthcare", "Medical and healthcare equipment"},
	{"Textiles", "Textile materials and products"},
	{"Food & Beverage", "Food processing and beverage equipment"},
}

func defaultSystemConfig() map[string]any {
	return map[string]any{
		"order_statuses":   []string{"PENDING", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED", "REFUNDED"},
		"inquiry_statuses": []string{"PENDING", "IN_PROGRESS", "RESOLVED", "CLOSED"},
		"priorities":       []string{"LOW", "MEDIUM", "HIGH", "URGENT"},
		"content_types":    []string{"product", "review", "message", "profile", "inquiry"},
		"severity_levels":  []string{"low", "medium", "high", "critical"},
		"rfq_statuses":     []string{"Pending", "Approved", "Rejected", "Processing", "Completed"},
		"rfq_types":        []string{"Standard", "Bid", "Catalog", "Marketplace"},
	}
}

var DefaultRolePermissions = map[string]RolePermissions{
	"super_admin": {
		Description: "Full system access",
		Permissions: map[string]bool{
			"users:read": true, "users:write": true, "users:delete": true,
			"roles:manage": true, "system:admin": true, "audit:read": true, "gdpr:manage": true,
		},
	},
	"admin": {
		Description: "Administrative access",
		Permissions: map[string]bool{
			"users:read": true, "users:write": true, "users:delete": false,
			"roles:assign": true, "audit:read": true, "gdpr:read": true,
		},
	},
	"moderator": {
		Description: "Content moderation access",
		Permissions: map[string]bool{
			"users:read": true, "users:write": true, "users:delete": false, "content:moderate": true,
		},
	},
	"user": {
		Description: "Standard user access",
		Permissions: map[string]bool{
			"profile:read": true, "profile:write": true, "content:read": true, "content:write": true,
		},
	},
	"guest": {
		Description: "Read-only access",
		Permissions: map[string]bool{"content:read": true},
	},
}
