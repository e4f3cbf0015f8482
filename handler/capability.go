package handler

import (
	"slices"
	"strings"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/jellydator/ttlcache/v3"
	"github.com/slack-go/slack"
)

func getUserPreferredName(user *slack.User) string {
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func (h *Handler) getUserInfo(userID string) (*slack.User, error) {
	cacheKey := "user_" + userID
	if user := h.userInfoCache.Get(cacheKey); user != nil {
		return user.Value(), nil
	}
	user, err := h.client.GetUserInfo(userID)
	if err != nil {
		return nil, err
	}
	h.userInfoCache.Set(cacheKey, user, ttlcache.DefaultTTL)
	return user, nil
}

// displayName resolves a user ID to a readable name, falling back to
// the raw ID when Slack cannot be asked.
func (h *Handler) displayName(userID string) string {
	user, err := h.getUserInfo(userID)
	if err != nil {
		return userID
	}
	return getUserPreferredName(user)
}

func (h *Handler) getUserGroups() ([]slack.UserGroup, error) {
	cacheKey := "user_groups"
	if groups := h.groupCache.Get(cacheKey); groups != nil {
		return groups.Value(), nil
	}
	groups, err := h.client.GetUserGroups()
	if err != nil {
		return nil, err
	}
	h.groupCache.Set(cacheKey, groups, ttlcache.DefaultTTL)
	return groups, nil
}

func (h *Handler) getGroupMembers(groupID string) ([]string, error) {
	cacheKey := "members_" + groupID
	if members := h.memberCache.Get(cacheKey); members != nil {
		return members.Value(), nil
	}
	members, err := h.client.GetUserGroupMembers(groupID)
	if err != nil {
		return nil, err
	}
	h.memberCache.Set(cacheKey, members, ttlcache.DefaultTTL)
	return members, nil
}

// groupsMatching picks the groups identified by any of the given
// references: an ID (Slack group IDs start with "S") or an exact name
// or handle match. Pure function of its inputs.
func groupsMatching(groups []slack.UserGroup, idsOrNames []string) []slack.UserGroup {
	var out []slack.UserGroup
	for _, ref := range idsOrNames {
		if ref == "" {
			continue
		}
		for _, g := range groups {
			if strings.HasPrefix(ref, "S") && g.ID == ref {
				out = append(out, g)
				continue
			}
			if strings.EqualFold(g.Name, ref) || strings.EqualFold(g.Handle, ref) {
				out = append(out, g)
			}
		}
	}
	return out
}

// isMemberOfAny reports whether the user belongs to at least one of the
// referenced groups.
func (h *Handler) isMemberOfAny(userID string, idsOrNames []string) (bool, error) {
	groups, err := h.getUserGroups()
	if err != nil {
		return false, err
	}
	for _, g := range groupsMatching(groups, idsOrNames) {
		members, err := h.getGroupMembers(g.ID)
		if err != nil {
			return false, err
		}
		if slices.Contains(members, userID) {
			return true, nil
		}
	}
	return false, nil
}

// staffRefs is every group that counts as staff: the two staff tiers
// plus the named team groups.
func (h *Handler) staffRefs() []string {
	refs := []string{h.cfg.CCRGroupID, h.cfg.SCRGroupID}
	return append(refs, model.TeamRoleNames...)
}

func (h *Handler) isStaff(userID string) (bool, error) {
	return h.isMemberOfAny(userID, h.staffRefs())
}

// isApprover: only the two staff tiers may decide approvals and run
// moderation commands.
func (h *Handler) isApprover(userID string) (bool, error) {
	return h.isMemberOfAny(userID, []string{h.cfg.CCRGroupID, h.cfg.SCRGroupID})
}

// isManager: the senior tier may release tickets it does not hold.
func (h *Handler) isManager(userID string) (bool, error) {
	return h.isMemberOfAny(userID, []string{h.cfg.SCRGroupID})
}

// groupByName finds a guild group by exact name, or nil.
func (h *Handler) groupByName(name string) (*slack.UserGroup, error) {
	groups, err := h.getUserGroups()
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if strings.EqualFold(groups[i].Name, name) || strings.EqualFold(groups[i].Handle, name) {
			return &groups[i], nil
		}
	}
	return nil, nil
}
