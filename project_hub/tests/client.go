package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"capstone_platform/project_hub/services"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

// statusError preserves the response code so tests can assert on the exact
// failure mode, not just that the request failed.
type statusError struct {
	Status  int
	Content string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request returned status %d, content '%v'", e.Status, e.Content)
}

func responseStatus(err error) int {
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.Status
	}
	return 0
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return &statusError{Status: res.StatusCode, Content: w.Body.String()}
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

var ErrUnauthorized = errors.New("unauthorized")

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "DELETE", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(username, universityId string) (loginInfo, error) {
	body := map[string]string{
		"username":      username,
		"email":         username + "@mail.com",
		"password":      username + "_password",
		"university_id": universityId,
	}

	err := c.Post("/user/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: username + "@mail.com", Password: username + "_password"}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) createUser(username, role string) (loginInfo, error) {
	body := map[string]string{
		"username": username,
		"email":    username + "@mail.com",
		"password": username + "_password",
		"role":     role,
	}

	err := c.Post("/user/create").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: username + "@mail.com", Password: username + "_password"}, nil
}

func (c *client) userInfo() (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Get("/user/info").Do(&res)
	return res, err
}

func (c *client) notifications() ([]services.NotificationInfo, error) {
	var res []services.NotificationInfo
	err := c.Get("/user/notifications").Do(&res)
	return res, err
}

func (c *client) createUniversity(name, domain string) (string, error) {
	body := map[string]string{"name": name, "domain": domain}

	var res map[string]string
	err := c.Post("/university/create").Json(body).Do(&res)
	return res["university_id"], err
}

func (c *client) listUniversities() ([]services.UniversityInfo, error) {
	var res []services.UniversityInfo
	err := c.Get("/university/list").Do(&res)
	return res, err
}

type createProjectArgs struct {
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	StartDate             *time.Time `json:"start_date"`
	DueDate               *time.Time `json:"due_date"`
	MemberIds             []string   `json:"member_ids"`
	PreferredSupervisorId *string    `json:"preferred_supervisor_id"`
	SaveAsDraft           bool       `json:"save_as_draft"`
}

func (c *client) createProject(args createProjectArgs) (string, error) {
	var res map[string]string
	err := c.Post("/project/create").Json(args).Do(&res)
	return res["project_id"], err
}

func (c *client) projectInfo(projectId string) (services.ProjectInfo, error) {
	var res services.ProjectInfo
	err := c.Get(fmt.Sprintf("/project/%v", projectId)).Do(&res)
	return res, err
}

func (c *client) listProjects() ([]services.ProjectInfo, error) {
	var res []services.ProjectInfo
	err := c.Get("/project/list").Do(&res)
	return res, err
}

func (c *client) updateProject(projectId string, updates interface{}) error {
	return c.Post(fmt.Sprintf("/project/%v/update", projectId)).Json(updates).Do(nil)
}

func (c *client) deleteProject(projectId string) error {
	return c.Delete(fmt.Sprintf("/project/%v", projectId)).Do(nil)
}

func (c *client) submitProject(projectId string) error {
	return c.Post(fmt.Sprintf("/project/%v/submit", projectId)).Do(nil)
}

func (c *client) decideProject(projectId string, approve bool, feedback string) error {
	body := map[string]interface{}{"approve": approve, "feedback": feedback}
	return c.Post(fmt.Sprintf("/project/%v/decision", projectId)).Json(body).Do(nil)
}

func (c *client) beginProject(projectId string) error {
	return c.Post(fmt.Sprintf("/project/%v/begin", projectId)).Do(nil)
}

func (c *client) completeProject(projectId string) error {
	return c.Post(fmt.Sprintf("/project/%v/complete", projectId)).Do(nil)
}

func (c *client) inviteMember(projectId, userId string) error {
	body := map[string]string{"user_id": userId}
	return c.Post(fmt.Sprintf("/team/%v/invite", projectId)).Json(body).Do(nil)
}

func (c *client) respondInvite(projectId string, accept bool) error {
	body := map[string]bool{"accept": accept}
	return c.Post(fmt.Sprintf("/team/%v/respond", projectId)).Json(body).Do(nil)
}

func (c *client) removeMember(projectId, userId string) error {
	body := map[string]string{"user_id": userId}
	return c.Post(fmt.Sprintf("/team/%v/remove", projectId)).Json(body).Do(nil)
}

func (c *client) leaveTeam(projectId string) error {
	return c.Post(fmt.Sprintf("/team/%v/leave", projectId)).Do(nil)
}

func (c *client) listMembers(projectId string) ([]services.MemberInfo, error) {
	var res []services.MemberInfo
	err := c.Get(fmt.Sprintf("/team/%v/members", projectId)).Do(&res)
	return res, err
}

type createTaskArgs struct {
	ProjectId     string     `json:"project_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	StartDate     *time.Time `json:"start_date"`
	DueDate       *time.Time `json:"due_date"`
	AssigneeId    *string    `json:"assignee_id"`
	ParentTaskId  *string    `json:"parent_task_id"`
	DependencyIds []string   `json:"dependency_ids"`
}

func (c *client) createTask(args createTaskArgs) (string, error) {
	var res map[string]string
	err := c.Post("/task/create").Json(args).Do(&res)
	return res["task_id"], err
}

func (c *client) taskInfo(taskId string) (services.TaskInfo, error) {
	var res services.TaskInfo
	err := c.Get(fmt.Sprintf("/task/%v", taskId)).Do(&res)
	return res, err
}

func (c *client) listTasks(projectId string) ([]services.TaskInfo, error) {
	var res []services.TaskInfo
	err := c.Get(fmt.Sprintf("/task/list/%v", projectId)).Do(&res)
	return res, err
}

func (c *client) startTask(taskId string) error {
	return c.Post(fmt.Sprintf("/task/%v/start", taskId)).Do(nil)
}

func (c *client) completeTask(taskId string) error {
	return c.Post(fmt.Sprintf("/task/%v/complete", taskId)).Do(nil)
}

func (c *client) updateTaskStatus(taskId, status string) error {
	body := map[string]string{"status": status}
	return c.Post(fmt.Sprintf("/task/%v/status", taskId)).Json(body).Do(nil)
}

func (c *client) assignTask(taskId, assigneeId string) error {
	body := map[string]string{"assignee_id": assigneeId}
	return c.Post(fmt.Sprintf("/task/%v/assign", taskId)).Json(body).Do(nil)
}

func (c *client) addTaskDependency(taskId, dependencyId string) error {
	return c.Post(fmt.Sprintf("/task/%v/dependencies/%v", taskId, dependencyId)).Do(nil)
}

func (c *client) removeTaskDependency(taskId, dependencyId string) error {
	return c.Delete(fmt.Sprintf("/task/%v/dependencies/%v", taskId, dependencyId)).Do(nil)
}

type createDeliverableArgs struct {
	ProjectId   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

func (c *client) createDeliverable(args createDeliverableArgs) (string, error) {
	var res map[string]string
	err := c.Post("/deliverable/create").Json(args).Do(&res)
	return res["deliverable_id"], err
}

func (c *client) listDeliverables(projectId string) ([]services.DeliverableInfo, error) {
	var res []services.DeliverableInfo
	err := c.Get(fmt.Sprintf("/deliverable/list/%v", projectId)).Do(&res)
	return res, err
}

func (c *client) submitDeliverable(deliverableId, notes, fileRef string) error {
	body := map[string]string{"submission_notes": notes, "file_ref": fileRef}
	return c.Post(fmt.Sprintf("/deliverable/%v/submit", deliverableId)).Json(body).Do(nil)
}

func (c *client) decideDeliverable(deliverableId string, approve bool, feedback string) error {
	body := map[string]interface{}{"approve": approve, "feedback": feedback}
	return c.Post(fmt.Sprintf("/deliverable/%v/decision", deliverableId)).Json(body).Do(nil)
}

func (c *client) reopenDeliverable(deliverableId string) error {
	return c.Post(fmt.Sprintf("/deliverable/%v/reopen", deliverableId)).Do(nil)
}
