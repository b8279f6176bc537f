package tests

import (
	"net/http"
	"testing"
)

func TestInviteFlow(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, err := uni.newStudent("leader1")
	if err != nil {
		t.Fatal(err)
	}
	invitee, err := uni.newStudent("invitee1")
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := leader.createProject(draftProjectArgs("Invite Flow"))
	if err != nil {
		t.Fatal(err)
	}

	// only the leader can invite
	err = invitee.inviteMember(projectId, invitee.userId)
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("non leader cannot invite, got %v", err)
	}

	if err := leader.inviteMember(projectId, invitee.userId); err != nil {
		t.Fatal(err)
	}

	notifications, err := invitee.notifications()
	if err != nil {
		t.Fatal(err)
	}
	if len(notifications) != 1 || notifications[0].Kind != "membership_invite" {
		t.Fatalf("invitee should be notified, got %v", notifications)
	}

	// pending members are not active yet
	members, err := leader.listMembers(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("expected leader and pending invitee, got %v", members)
	}
	for _, m := range members {
		if m.UserId.String() == invitee.userId && m.Status != "pending" {
			t.Fatalf("invitee should be pending, got %v", m.Status)
		}
	}

	if err := invitee.respondInvite(projectId, true); err != nil {
		t.Fatal(err)
	}

	// accepting twice conflicts
	err = invitee.respondInvite(projectId, true)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("double accept should conflict, got %v", err)
	}

	members, err = leader.listMembers(projectId)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range members {
		if m.UserId.String() == invitee.userId && m.Status != "active" {
			t.Fatalf("invitee should be active, got %v", m.Status)
		}
	}
}

func TestInviteDecline(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, err := uni.newStudent("leader1")
	if err != nil {
		t.Fatal(err)
	}
	invitee, err := uni.newStudent("invitee1")
	if err != nil {
		t.Fatal(err)
	}

	projectId, err := leader.createProject(draftProjectArgs("Declined"))
	if err != nil {
		t.Fatal(err)
	}

	if err := leader.inviteMember(projectId, invitee.userId); err != nil {
		t.Fatal(err)
	}
	if err := invitee.respondInvite(projectId, false); err != nil {
		t.Fatal(err)
	}

	// a declined invite can be renewed
	if err := leader.inviteMember(projectId, invitee.userId); err != nil {
		t.Fatal(err)
	}
	if err := invitee.respondInvite(projectId, true); err != nil {
		t.Fatal(err)
	}

	// declining frees the student for other teams
	other, err := uni.newStudent("other_leader")
	if err != nil {
		t.Fatal(err)
	}
	otherProject, err := other.createProject(draftProjectArgs("Other Team"))
	if err != nil {
		t.Fatal(err)
	}
	err = other.inviteMember(otherProject, invitee.userId)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("active member cannot be invited elsewhere, got %v", err)
	}
}

func TestInviteValidation(t *testing.T) {
	env := setupTestEnv(t)

	uni1, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	uni2, err := env.newUniversity("uni2")
	if err != nil {
		t.Fatal(err)
	}

	leader, err := uni1.newStudent("leader1")
	if err != nil {
		t.Fatal(err)
	}
	projectId, err := leader.createProject(draftProjectArgs("Validation"))
	if err != nil {
		t.Fatal(err)
	}

	// supervisors are not team material
	err = leader.inviteMember(projectId, uni1.supervisor.userId)
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("supervisor cannot join a team, got %v", err)
	}

	// neither are students of other universities
	foreign, err := uni2.newStudent("foreign1")
	if err != nil {
		t.Fatal(err)
	}
	err = leader.inviteMember(projectId, foreign.userId)
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("cross university invite should fail, got %v", err)
	}
}

func TestTeamCapacityOnAccept(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, err := uni.newStudent("leader1")
	if err != nil {
		t.Fatal(err)
	}

	memberIds := make([]string, 0, 3)
	for _, name := range []string{"m1", "m2", "m3"} {
		member, err := uni.newStudent(name)
		if err != nil {
			t.Fatal(err)
		}
		memberIds = append(memberIds, member.userId)
	}

	args := draftProjectArgs("Full Team")
	args.MemberIds = memberIds
	projectId, err := leader.createProject(args)
	if err != nil {
		t.Fatal(err)
	}

	// the invite itself succeeds, but accepting would exceed the cap
	extra, err := uni.newStudent("extra1")
	if err != nil {
		t.Fatal(err)
	}
	if err := leader.inviteMember(projectId, extra.userId); err != nil {
		t.Fatal(err)
	}
	err = extra.respondInvite(projectId, true)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("accepting into a full team should conflict, got %v", err)
	}
}

func TestRemoveAndLeave(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, err := uni.newStudent("leader1")
	if err != nil {
		t.Fatal(err)
	}
	m1, err := uni.newStudent("m1")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := uni.newStudent("m2")
	if err != nil {
		t.Fatal(err)
	}

	args := draftProjectArgs("Churn")
	args.MemberIds = []string{m1.userId, m2.userId}
	projectId, err := leader.createProject(args)
	if err != nil {
		t.Fatal(err)
	}

	// members cannot remove each other
	err = m1.removeMember(projectId, m2.userId)
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("member cannot remove another member, got %v", err)
	}

	// the leader cannot be removed or leave
	err = leader.removeMember(projectId, leader.userId)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("leader cannot be removed, got %v", err)
	}
	err = leader.leaveTeam(projectId)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("leader cannot leave, got %v", err)
	}

	if err := leader.removeMember(projectId, m1.userId); err != nil {
		t.Fatal(err)
	}
	if err := m2.leaveTeam(projectId); err != nil {
		t.Fatal(err)
	}

	// both are free again
	if _, err := m1.createProject(draftProjectArgs("M1 Project")); err != nil {
		t.Fatal(err)
	}
	if _, err := m2.createProject(draftProjectArgs("M2 Project")); err != nil {
		t.Fatal(err)
	}
}
