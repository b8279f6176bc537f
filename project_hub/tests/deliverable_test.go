package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestDeliverableReviewCycle(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	deliverableId, err := leader.createDeliverable(createDeliverableArgs{
		ProjectId: projectId,
		Title:     "Midterm report",
		DueDate:   time.Now().UTC().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	// review requires a submission first
	err = uni.supervisor.decideDeliverable(deliverableId, true, "")
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("deciding a pending deliverable should conflict, got %v", err)
	}

	// a submission needs content
	err = leader.submitDeliverable(deliverableId, "", "")
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("empty submission should be rejected, got %v", err)
	}

	if err := leader.submitDeliverable(deliverableId, "first draft attached", "reports/midterm-v1.pdf"); err != nil {
		t.Fatal(err)
	}

	deliverables, err := leader.listDeliverables(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if len(deliverables) != 1 || deliverables[0].Status != "submitted" || deliverables[0].SubmittedAt == nil {
		t.Fatalf("expected one submitted deliverable, got %v", deliverables)
	}

	// resubmitting while under review conflicts
	err = leader.submitDeliverable(deliverableId, "second draft", "")
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("double submission should conflict, got %v", err)
	}

	if err := uni.supervisor.decideDeliverable(deliverableId, false, "missing evaluation chapter"); err != nil {
		t.Fatal(err)
	}

	deliverables, err = leader.listDeliverables(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if deliverables[0].Status != "rejected" || deliverables[0].Feedback != "missing evaluation chapter" {
		t.Fatalf("expected rejected deliverable with feedback, got %v", deliverables[0])
	}

	// rejection is not final: the team revises and goes again
	if err := leader.reopenDeliverable(deliverableId); err != nil {
		t.Fatal(err)
	}

	deliverables, err = leader.listDeliverables(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if deliverables[0].Status != "pending" || deliverables[0].SubmittedAt != nil {
		t.Fatalf("reopened deliverable should be pending without submission time, got %v", deliverables[0])
	}

	if err := leader.submitDeliverable(deliverableId, "revised draft", "reports/midterm-v2.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := uni.supervisor.decideDeliverable(deliverableId, true, "well done"); err != nil {
		t.Fatal(err)
	}

	// approval is final
	err = leader.reopenDeliverable(deliverableId)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("approved deliverable cannot be reopened, got %v", err)
	}
}

func TestDeliverablePermissions(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	member, err := uni.newStudent("member1")
	if err != nil {
		t.Fatal(err)
	}
	if err := leader.inviteMember(projectId, member.userId); err != nil {
		t.Fatal(err)
	}
	if err := member.respondInvite(projectId, true); err != nil {
		t.Fatal(err)
	}

	// only the leader manages deliverables
	_, err = member.createDeliverable(createDeliverableArgs{
		ProjectId: projectId, Title: "Rogue deliverable",
		DueDate: time.Now().UTC().Add(24 * time.Hour),
	})
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("members cannot create deliverables, got %v", err)
	}

	deliverableId, err := leader.createDeliverable(createDeliverableArgs{
		ProjectId: projectId, Title: "Final report",
		DueDate: time.Now().UTC().Add(60 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	err = member.submitDeliverable(deliverableId, "notes", "")
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("members cannot submit deliverables, got %v", err)
	}

	if err := leader.submitDeliverable(deliverableId, "notes", ""); err != nil {
		t.Fatal(err)
	}

	// only the bound supervisor decides
	otherSup, err := uni.newSupervisor("other_sup")
	if err != nil {
		t.Fatal(err)
	}
	err = otherSup.decideDeliverable(deliverableId, true, "")
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("unbound supervisor cannot decide, got %v", err)
	}
	err = leader.decideDeliverable(deliverableId, true, "")
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("leader cannot decide, got %v", err)
	}

	if err := uni.supervisor.decideDeliverable(deliverableId, true, ""); err != nil {
		t.Fatal(err)
	}

	notifications, err := leader.notifications()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range notifications {
		if n.Kind == "deliverable_decided" {
			found = true
		}
	}
	if !found {
		t.Fatalf("leader should be notified of the decision, got %v", notifications)
	}
}

func TestDeliverableValidation(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	_, err = leader.createDeliverable(createDeliverableArgs{
		ProjectId: projectId, Title: "",
		DueDate: time.Now().UTC().Add(24 * time.Hour),
	})
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("empty title should be rejected, got %v", err)
	}

	_, err = leader.createDeliverable(createDeliverableArgs{
		ProjectId: projectId, Title: "Late",
		DueDate: time.Now().UTC().Add(-24 * time.Hour),
	})
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("past due date should be rejected, got %v", err)
	}
}

func TestDeliverableFeedbackWithoutDecision(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	deliverableId, err := leader.createDeliverable(createDeliverableArgs{
		ProjectId: projectId, Title: "Prototype demo",
		DueDate: time.Now().UTC().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	body := map[string]string{"feedback": "consider adding offline mode", "feedback_ar": "ملاحظة"}
	err = uni.supervisor.Post(fmt.Sprintf("/deliverable/%v/feedback", deliverableId)).Json(body).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	deliverables, err := leader.listDeliverables(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if deliverables[0].Status != "pending" || deliverables[0].Feedback != "consider adding offline mode" {
		t.Fatalf("feedback should not change status, got %v", deliverables[0])
	}
}
