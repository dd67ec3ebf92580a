package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тестовые структуры данных соответствующие API
type LoginRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type TeamResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	TeamSize int    `json:"team_size"`
	IsActive bool   `json:"is_active"`
}

type MemberResponse struct {
	ID               string `json:"id"`
	TeamID           string `json:"team_id"`
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	DisplayName      string `json:"display_name"`
	Role             string `json:"role"`
	InvitationStatus string `json:"invitation_status"`
}

type IntegrationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	Status      string `json:"status"`
	OwnerTeamID string `json:"owner_team_id"`
}

type ShareResponse struct {
	ID         string `json:"id"`
	TeamID     string `json:"team_id"`
	ShareLevel string `json:"share_level"`
	Status     string `json:"status"`
}

type ErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// login получает JWT токен для пользователя
func login(t *testing.T, env *TestEnvironment, userID, email string) string {
	t.Helper()

	body, _ := json.Marshal(LoginRequest{UserID: userID, Email: email})
	resp := env.MakeRequest(t, http.MethodPost, "/auth/login", bytes.NewReader(body), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, "Login should succeed")

	var loginResp LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

// createTeam создает команду и возвращает ее
func createTeam(t *testing.T, env *TestEnvironment, token, name string) TeamResponse {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"name": name})
	resp := env.MakeRequest(t, http.MethodPost, "/teams", bytes.NewReader(body), token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode, "Team creation should succeed")

	var team TeamResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&team))
	return team
}

// addMember добавляет участника и возвращает его запись
func addMember(t *testing.T, env *TestEnvironment, token, teamID string, payload map[string]string) MemberResponse {
	t.Helper()

	body, _ := json.Marshal(payload)
	resp := env.MakeRequest(t, http.MethodPost, "/teams/"+teamID+"/members", bytes.NewReader(body), token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode, "Member add should succeed")

	var member MemberResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&member))
	return member
}

// TestE2E_MemberLifecycle тестирует полный жизненный цикл участников команды
func TestE2E_MemberLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	ownerToken := login(t, env, "owner-1", "owner@example.com")
	team := createTeam(t, env, ownerToken, "Backend Guild")

	t.Run("Creator Becomes Owner", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		require.Len(t, members, 1)
		assert.Equal(t, "owner", members[0].Role)
		assert.Equal(t, "active", members[0].InvitationStatus)
	})

	t.Run("Add Active Member", func(t *testing.T) {
		member := addMember(t, env, ownerToken, team.ID, map[string]string{
			"user_id":      "member-1",
			"email":        "member1@example.com",
			"display_name": "Alice",
			"role":         "member",
		})

		assert.Equal(t, "member", member.Role)
		assert.Equal(t, "active", member.InvitationStatus)
	})

	t.Run("Duplicate Member Is Conflict", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"user_id": "member-1",
			"role":    "member",
		})
		resp := env.MakeRequest(t, http.MethodPost, "/teams/"+team.ID+"/members", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "User is already a member of this team", errBody.Error.Message)
	})

	var invited MemberResponse
	t.Run("Invite By Email", func(t *testing.T) {
		invited = addMember(t, env, ownerToken, team.ID, map[string]string{
			"email":             "invitee@example.com",
			"role":              "viewer",
			"invitation_status": "pending",
		})

		assert.Equal(t, "pending", invited.InvitationStatus)
		assert.Empty(t, invited.UserID)
	})

	t.Run("Duplicate Email Invitation Is Conflict", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"email":             "invitee@example.com",
			"role":              "viewer",
			"invitation_status": "pending",
		})
		resp := env.MakeRequest(t, http.MethodPost, "/teams/"+team.ID+"/members", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "This email already has a pending invitation to this team", errBody.Error.Message)
	})

	t.Run("Pending Members Not Counted In Team Size", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID, nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got TeamResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		// owner + member-1 активны, приглашенный по email еще pending
		assert.Equal(t, 2, got.TeamSize)
	})

	t.Run("Filter Members By Status", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=pending", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		require.Len(t, members, 1)
		assert.Equal(t, "invitee@example.com", members[0].Email)
	})

	t.Run("Resend Invitation", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodPost,
			"/teams/"+team.ID+"/members/"+invited.ID+"/resend-invitation",
			bytes.NewReader([]byte(`{"message":"welcome aboard"}`)), ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "success", result["status"])
		assert.Equal(t, "Invitation resent to invitee@example.com", result["message"])
	})

	t.Run("Cannot Resend To Active Member", func(t *testing.T) {
		// Ищем запись активного участника
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=active", nil, ownerToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var activeMemberID string
		for _, m := range members {
			if m.UserID == "member-1" {
				activeMemberID = m.ID
			}
		}
		require.NotEmpty(t, activeMemberID)

		resp = env.MakeRequest(t, http.MethodPost,
			"/teams/"+team.ID+"/members/"+activeMemberID+"/resend-invitation",
			bytes.NewReader([]byte(`{}`)), ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Member Updates Own Display Name", func(t *testing.T) {
		memberToken := login(t, env, "member-1", "member1@example.com")

		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=active", nil, memberToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var self MemberResponse
		for _, m := range members {
			if m.UserID == "member-1" {
				self = m
			}
		}
		require.NotEmpty(t, self.ID)

		body, _ := json.Marshal(map[string]string{"display_name": "Alice Cooper"})
		resp = env.MakeRequest(t, http.MethodPatch,
			"/teams/"+team.ID+"/members/"+self.ID, bytes.NewReader(body), memberToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
		assert.Equal(t, "Alice Cooper", updated.DisplayName)
	})

	t.Run("Member Cannot Change Own Role", func(t *testing.T) {
		memberToken := login(t, env, "member-1", "member1@example.com")

		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=active", nil, memberToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var self MemberResponse
		for _, m := range members {
			if m.UserID == "member-1" {
				self = m
			}
		}

		body, _ := json.Marshal(map[string]string{"role": "admin"})
		resp = env.MakeRequest(t, http.MethodPatch,
			"/teams/"+team.ID+"/members/"+self.ID, bytes.NewReader(body), memberToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "You can only update these fields: display_name", errBody.Error.Message)
	})

	t.Run("Member Cannot Send Unsupported Fields", func(t *testing.T) {
		memberToken := login(t, env, "member-1", "member1@example.com")

		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=active", nil, memberToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var self MemberResponse
		for _, m := range members {
			if m.UserID == "member-1" {
				self = m
			}
		}

		body, _ := json.Marshal(map[string]string{"email": "new@example.com"})
		resp = env.MakeRequest(t, http.MethodPatch,
			"/teams/"+team.ID+"/members/"+self.ID, bytes.NewReader(body), memberToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "You can only update these fields: display_name", errBody.Error.Message)
	})

	t.Run("Last Owner Cannot Be Removed", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=active", nil, ownerToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var ownerMemberID string
		for _, m := range members {
			if m.Role == "owner" {
				ownerMemberID = m.ID
			}
		}
		require.NotEmpty(t, ownerMemberID)

		resp = env.MakeRequest(t, http.MethodDelete,
			"/teams/"+team.ID+"/members/"+ownerMemberID, nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "Cannot remove the last owner of the team", errBody.Error.Message)
	})

	t.Run("Member Leaves Team", func(t *testing.T) {
		memberToken := login(t, env, "member-1", "member1@example.com")

		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members?status=active", nil, memberToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var self MemberResponse
		for _, m := range members {
			if m.UserID == "member-1" {
				self = m
			}
		}

		resp = env.MakeRequest(t, http.MethodDelete,
			"/teams/"+team.ID+"/members/"+self.ID, nil, memberToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "You have left the team", result["message"])
	})

	t.Run("Team Size Recomputed After Removal", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID, nil, ownerToken)
		defer resp.Body.Close()

		var got TeamResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, 1, got.TeamSize)
	})
}

// TestE2E_AdminRestrictions тестирует ограничения роли admin
func TestE2E_AdminRestrictions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	ownerToken := login(t, env, "owner-2", "owner2@example.com")
	team := createTeam(t, env, ownerToken, "Platform Team")

	addMember(t, env, ownerToken, team.ID, map[string]string{
		"user_id": "admin-1",
		"email":   "admin1@example.com",
		"role":    "admin",
	})
	regular := addMember(t, env, ownerToken, team.ID, map[string]string{
		"user_id": "member-2",
		"email":   "member2@example.com",
		"role":    "member",
	})

	adminToken := login(t, env, "admin-1", "admin1@example.com")

	t.Run("Admin Cannot Modify Owner", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members", nil, adminToken)
		var members []MemberResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		resp.Body.Close()

		var ownerMemberID string
		for _, m := range members {
			if m.Role == "owner" {
				ownerMemberID = m.ID
			}
		}
		require.NotEmpty(t, ownerMemberID)

		body, _ := json.Marshal(map[string]string{"role": "member"})
		resp = env.MakeRequest(t, http.MethodPatch,
			"/teams/"+team.ID+"/members/"+ownerMemberID, bytes.NewReader(body), adminToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "Admins cannot modify owners or other admins", errBody.Error.Message)
	})

	t.Run("Admin Cannot Promote To Admin", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"role": "admin"})
		resp := env.MakeRequest(t, http.MethodPatch,
			"/teams/"+team.ID+"/members/"+regular.ID, bytes.NewReader(body), adminToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Admin Removes Regular Member", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodDelete,
			"/teams/"+team.ID+"/members/"+regular.ID, nil, adminToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "Member has been removed from the team", result["message"])
	})

	t.Run("Outsider Gets Forbidden", func(t *testing.T) {
		outsiderToken := login(t, env, "outsider-1", "outsider@example.com")

		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/members", nil, outsiderToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "You are not a member of this team", errBody.Error.Message)
	})
}

// TestE2E_IntegrationSharing тестирует подключение и шаринг интеграций
func TestE2E_IntegrationSharing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	ownerToken := login(t, env, "int-owner", "int-owner@example.com")
	teamA := createTeam(t, env, ownerToken, "Owning Team")

	otherToken := login(t, env, "other-owner", "other-owner@example.com")
	teamB := createTeam(t, env, otherToken, "Receiving Team")

	var integration IntegrationResponse
	t.Run("Connect Service", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"name":         "Engineering Workspace",
			"service_type": "slack",
		})
		resp := env.MakeRequest(t, http.MethodPost,
			"/teams/"+teamA.ID+"/integrations", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&integration))
		assert.Equal(t, "active", integration.Status)
		assert.Equal(t, teamA.ID, integration.OwnerTeamID)
	})

	t.Run("Invalid Service Type Rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"name":         "Bad",
			"service_type": "jira",
		})
		resp := env.MakeRequest(t, http.MethodPost,
			"/teams/"+teamA.ID+"/integrations", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Share With Other Team", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"team_id":     teamB.ID,
			"share_level": "read_only",
		})
		resp := env.MakeRequest(t, http.MethodPost,
			"/integrations/"+integration.ID+"/shares", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var share ShareResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&share))
		assert.Equal(t, "active", share.Status)
	})

	t.Run("Double Share Is Conflict", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"team_id": teamB.ID})
		resp := env.MakeRequest(t, http.MethodPost,
			"/integrations/"+integration.ID+"/shares", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Receiving Team Sees Shared Integration", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet,
			"/teams/"+teamB.ID+"/integrations", nil, otherToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var integrations []IntegrationResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&integrations))
		require.Len(t, integrations, 1)
		assert.Equal(t, integration.ID, integrations[0].ID)
	})

	t.Run("Receiving Team Cannot Share Further", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"team_id": teamB.ID})
		resp := env.MakeRequest(t, http.MethodPost,
			"/integrations/"+integration.ID+"/shares", bytes.NewReader(body), otherToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Revoke Share", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodDelete,
			"/integrations/"+integration.ID+"/shares/"+teamB.ID, nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Revoked Share Disappears From List", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet,
			"/teams/"+teamB.ID+"/integrations", nil, otherToken)
		defer resp.Body.Close()

		var integrations []IntegrationResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&integrations))
		assert.Len(t, integrations, 0)
	})

	t.Run("Reshare Reactivates Revoked Share", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"team_id":     teamB.ID,
			"share_level": "limited_access",
		})
		resp := env.MakeRequest(t, http.MethodPost,
			"/integrations/"+integration.ID+"/shares", bytes.NewReader(body), ownerToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var share ShareResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&share))
		assert.Equal(t, "active", share.Status)
		assert.Equal(t, "limited_access", share.ShareLevel)
	})

	t.Run("Audit Trail Records Operations", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet,
			"/integrations/"+integration.ID+"/events", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var events []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		// created, shared, unshared, shared
		assert.GreaterOrEqual(t, len(events), 4)
	})

	t.Run("Sync Without Credentials Fails", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodPost,
			"/integrations/"+integration.ID+"/resources/sync", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errBody ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
		assert.Equal(t, "Integration has no stored credentials", errBody.Error.Message)
	})
}

// TestE2E_Stats тестирует эндпоинты статистики
func TestE2E_Stats(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	ownerToken := login(t, env, "stats-owner", "stats@example.com")
	team := createTeam(t, env, ownerToken, "Stats Team")

	addMember(t, env, ownerToken, team.ID, map[string]string{
		"email":             "pending@example.com",
		"role":              "member",
		"invitation_status": "pending",
	})

	t.Run("Get General Stats", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/stats", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var stats map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
		assert.NotEmpty(t, stats)
	})

	t.Run("Get Team Stats", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/stats", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var stats struct {
			MembersByStatus map[string]int `json:"members_by_status"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
		assert.Equal(t, 1, stats.MembersByStatus["active"])
		assert.Equal(t, 1, stats.MembersByStatus["pending"])
	})

	t.Run("Team Stats Require Membership", func(t *testing.T) {
		outsiderToken := login(t, env, "stats-outsider", "so@example.com")

		resp := env.MakeRequest(t, http.MethodGet, "/teams/"+team.ID+"/stats", nil, outsiderToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
