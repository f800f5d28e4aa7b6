package dto

type OverrideItem struct {
	Code      string `json:"code"       validate:"required,max=50"`
	IsGranted *bool  `json:"is_granted" validate:"required"`
}

type SetOverridesRequest struct {
	Permissions []OverrideItem `json:"permissions" validate:"required,min=1,dive"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin buyer seller"`
}

type OverrideResponse struct {
	Code      string `json:"code"`
	IsGranted bool   `json:"is_granted"`
}

type UserPermissionsResponse struct {
	UserID      string             `json:"user_id"`
	Permissions []string           `json:"permissions"`
	Roles       []RoleRef          `json:"roles"`
	Overrides   []OverrideResponse `json:"overrides"`
	CacheSynced *bool              `json:"cache_synced,omitempty"`
}

type PermissionCheckResponse struct {
	Code    string `json:"code"`
	Granted bool   `json:"granted"`
}
