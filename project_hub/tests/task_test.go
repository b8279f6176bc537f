package tests

import (
	"net/http"
	"testing"
	"time"
)

func TestTaskLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	taskId, err := leader.createTask(createTaskArgs{
		ProjectId:  projectId,
		Title:      "Collect beacon data",
		AssigneeId: &leader.userId,
	})
	if err != nil {
		t.Fatal(err)
	}

	info, err := leader.taskInfo(taskId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != "todo" || info.Progress != 0 {
		t.Fatalf("new task should be todo with zero progress, got %v", info)
	}
	if !info.CanStart {
		t.Fatal("task without dependencies should be startable")
	}

	if err := leader.startTask(taskId); err != nil {
		t.Fatal(err)
	}

	// starting twice is an illegal transition
	err = leader.startTask(taskId)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("double start should conflict, got %v", err)
	}

	if err := leader.completeTask(taskId); err != nil {
		t.Fatal(err)
	}

	info, err = leader.taskInfo(taskId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != "completed" || info.Progress != 100 || info.CompletionDate == nil {
		t.Fatalf("completed task should carry progress and completion date, got %v", info)
	}

	// overriding a completed task back also resets its progress
	if err := leader.updateTaskStatus(taskId, "in_progress"); err != nil {
		t.Fatal(err)
	}

	info, err = leader.taskInfo(taskId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != "in_progress" || info.Progress != 0 || info.CompletionDate != nil {
		t.Fatalf("reopened task should drop progress and completion date, got %v", info)
	}
}

func TestTaskDependencyReadiness(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	first, err := leader.createTask(createTaskArgs{
		ProjectId: projectId, Title: "Gather requirements", AssigneeId: &leader.userId,
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := leader.createTask(createTaskArgs{
		ProjectId: projectId, Title: "Write report", AssigneeId: &leader.userId,
		DependencyIds: []string{first},
	})
	if err != nil {
		t.Fatal(err)
	}

	info, err := leader.taskInfo(second)
	if err != nil {
		t.Fatal(err)
	}
	if info.CanStart {
		t.Fatal("task with incomplete dependency should not be startable")
	}

	err = leader.startTask(second)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("starting a blocked task should conflict, got %v", err)
	}

	if err := leader.startTask(first); err != nil {
		t.Fatal(err)
	}
	if err := leader.completeTask(first); err != nil {
		t.Fatal(err)
	}

	if err := leader.startTask(second); err != nil {
		t.Fatal(err)
	}
}

func TestTaskDependencyCycles(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	a, err := leader.createTask(createTaskArgs{ProjectId: projectId, Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := leader.createTask(createTaskArgs{ProjectId: projectId, Title: "B", DependencyIds: []string{a}})
	if err != nil {
		t.Fatal(err)
	}
	c, err := leader.createTask(createTaskArgs{ProjectId: projectId, Title: "C", DependencyIds: []string{b}})
	if err != nil {
		t.Fatal(err)
	}

	// a -> a is a self loop
	err = leader.addTaskDependency(a, a)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("self dependency should conflict, got %v", err)
	}

	// c depends on b depends on a, so a -> c closes a cycle
	err = leader.addTaskDependency(a, c)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("cyclic dependency should conflict, got %v", err)
	}

	// removing an edge re-opens the path
	if err := leader.removeTaskDependency(b, a); err != nil {
		t.Fatal(err)
	}
	if err := leader.addTaskDependency(a, c); err != nil {
		t.Fatal(err)
	}
}

func TestTaskDependencySameProject(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader1, project1 := newRunningProject(t, &uni, "leader1")
	leader2, project2 := newRunningProject(t, &uni, "leader2")

	t1, err := leader1.createTask(createTaskArgs{ProjectId: project1, Title: "T1"})
	if err != nil {
		t.Fatal(err)
	}
	t2, err := leader2.createTask(createTaskArgs{ProjectId: project2, Title: "T2"})
	if err != nil {
		t.Fatal(err)
	}

	err = leader1.addTaskDependency(t1, t2)
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("cross project dependency should conflict, got %v", err)
	}

	_, err = leader1.createTask(createTaskArgs{
		ProjectId: project1, Title: "T3", DependencyIds: []string{t2},
	})
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("cross project dependency at creation should conflict, got %v", err)
	}
}

func TestTaskPermissions(t *testing.T) {
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

	// members cannot create or assign tasks
	_, err = member.createTask(createTaskArgs{ProjectId: projectId, Title: "Rogue task"})
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("members cannot create tasks, got %v", err)
	}

	taskId, err := leader.createTask(createTaskArgs{ProjectId: projectId, Title: "Design schema"})
	if err != nil {
		t.Fatal(err)
	}

	err = member.assignTask(taskId, member.userId)
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("members cannot assign tasks, got %v", err)
	}

	if err := leader.assignTask(taskId, member.userId); err != nil {
		t.Fatal(err)
	}

	// only the assignee moves the task
	err = leader.startTask(taskId)
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("non assignee cannot start the task, got %v", err)
	}
	if err := member.startTask(taskId); err != nil {
		t.Fatal(err)
	}

	// the creator may edit fields without being the assignee
	due := time.Now().UTC().Add(14 * 24 * time.Hour)
	err = leader.Post("/task/" + taskId + "/update").Json(map[string]interface{}{"due_date": due}).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := member.updateTaskStatus(taskId, "blocked"); err != nil {
		t.Fatal(err)
	}
	info, err := member.taskInfo(taskId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != "blocked" {
		t.Fatalf("expected blocked status, got %v", info.Status)
	}

	err = member.updateTaskStatus(taskId, "archived")
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("unknown status should be rejected, got %v", err)
	}
}

func TestTaskAssigneeMustBeActiveMember(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	outsider, err := uni.newStudent("outsider1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = leader.createTask(createTaskArgs{
		ProjectId: projectId, Title: "Orphan", AssigneeId: &outsider.userId,
	})
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("assignee must be a member, got %v", err)
	}

	taskId, err := leader.createTask(createTaskArgs{ProjectId: projectId, Title: "Orphan"})
	if err != nil {
		t.Fatal(err)
	}
	err = leader.assignTask(taskId, outsider.userId)
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("assignee must be a member, got %v", err)
	}
}

func TestProjectProgress(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}
	leader, projectId := newRunningProject(t, &uni, "leader1")

	taskIds := make([]string, 0, 4)
	for _, title := range []string{"t1", "t2", "t3", "t4"} {
		taskId, err := leader.createTask(createTaskArgs{
			ProjectId: projectId, Title: title, AssigneeId: &leader.userId,
		})
		if err != nil {
			t.Fatal(err)
		}
		taskIds = append(taskIds, taskId)
	}

	info, err := leader.projectInfo(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Progress != 0 {
		t.Fatalf("expected zero progress, got %v", info.Progress)
	}

	if err := leader.completeTask(taskIds[0]); err != nil {
		t.Fatal(err)
	}

	info, err = leader.projectInfo(projectId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Progress != 25 {
		t.Fatalf("expected 25 percent progress, got %v", info.Progress)
	}
}
