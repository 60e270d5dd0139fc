// Command smoke drives the core teacher/student flow against a running
// instance and fails on the first broken step. Meant for staging checks
// after a deploy, not for CI.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Status   int
	Duration time.Duration
	Error    error
}

type client struct {
	base       string
	gatewayKey string
	http       *http.Client
}

func main() {
	var (
		base       string
		gatewayKey string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&gatewayKey, "gateway-key", "dev_gateway_key", "Gateway API key")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	c := &client{
		base:       strings.TrimRight(base, "/"),
		gatewayKey: gatewayKey,
		http:       &http.Client{Timeout: timeout},
	}

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	teacherExt := "smoke-teacher-" + suffix
	studentExt := "smoke-student-" + suffix

	var steps []step

	_, st := c.do("register teacher", http.MethodPost, "/teachers", "", map[string]any{
		"external_id": teacherExt,
		"name":        "Smoke Teacher",
	})
	steps = append(steps, st)

	token, st := c.mintToken("teacher token", teacherExt, "teacher")
	steps = append(steps, st)

	studentData, st := c.do("create student", http.MethodPost, "/students", token, map[string]any{
		"name":        "Smoke Student",
		"external_id": studentExt,
	})
	steps = append(steps, st)

	homeworkData, st := c.do("create homework", http.MethodPost, "/homeworks", token, map[string]any{
		"title":     "Smoke homework",
		"content":   "Solve one equation",
		"max_score": 10,
	})
	steps = append(steps, st)

	assignmentBody := map[string]any{
		"homework_id": dataID(homeworkData),
		"target_type": "student",
		"target_id":   dataID(studentData),
	}
	_, st = c.do("assign homework", http.MethodPost, "/assignments", token, assignmentBody)
	steps = append(steps, st)

	studentToken, st := c.mintToken("student token", studentExt, "student")
	steps = append(steps, st)

	submissions, st := c.do("list submissions", http.MethodGet, "/submissions", studentToken, nil)
	steps = append(steps, st)

	if id := firstID(submissions); id != "" {
		_, st = c.submitText("hand in answer", id, studentToken, "x = 4")
		steps = append(steps, st)

		_, st = c.do("grade submission", http.MethodPost, "/submissions/"+id+"/grade", token, map[string]any{
			"score":   8,
			"comment": "almost",
		})
		steps = append(steps, st)
	}

	failed := printReport(steps)
	if failed > 0 {
		os.Exit(1)
	}
}

func (c *client) do(name, method, path, token string, body any) (map[string]any, step) {
	st := step{Name: name}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			st.Error = err
			return nil, st
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		st.Error = err
		return nil, st
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	st.Duration = time.Since(start)
	if err != nil {
		st.Error = err
		return nil, st
	}
	defer resp.Body.Close() //nolint:errcheck

	st.Status = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		st.Error = err
		return nil, st
	}
	if resp.StatusCode >= 400 {
		st.Error = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return nil, st
	}

	var envelope map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			st.Error = fmt.Errorf("decode response: %w", err)
			return nil, st
		}
	}
	return envelope, st
}

func (c *client) mintToken(name, externalID, role string) (string, step) {
	st := step{Name: name}

	payload, _ := json.Marshal(map[string]any{"external_id": externalID, "role": role})
	req, err := http.NewRequest(http.MethodPost, c.base+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		st.Error = err
		return "", st
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gateway-Key", c.gatewayKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	st.Duration = time.Since(start)
	if err != nil {
		st.Error = err
		return "", st
	}
	defer resp.Body.Close() //nolint:errcheck

	st.Status = resp.StatusCode
	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		st.Error = fmt.Errorf("decode token: %w", err)
		return "", st
	}
	if envelope.Data.AccessToken == "" {
		st.Error = fmt.Errorf("empty token, status %d", resp.StatusCode)
	}
	return envelope.Data.AccessToken, st
}

func (c *client) submitText(name, submissionID, token, text string) (map[string]any, step) {
	st := step{Name: name}

	var buf bytes.Buffer
	buf.WriteString("--smokeboundary\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="content"` + "\r\n\r\n")
	buf.WriteString(text + "\r\n--smokeboundary--\r\n")

	req, err := http.NewRequest(http.MethodPost, c.base+"/submissions/"+submissionID+"/file", &buf)
	if err != nil {
		st.Error = err
		return nil, st
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary=smokeboundary")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	st.Duration = time.Since(start)
	if err != nil {
		st.Error = err
		return nil, st
	}
	defer resp.Body.Close() //nolint:errcheck

	st.Status = resp.StatusCode
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		st.Error = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil, st
}

func dataID(envelope map[string]any) string {
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := data["id"].(string)
	return id
}

func firstID(envelope map[string]any) string {
	items, ok := envelope["data"].([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := first["id"].(string)
	return id
}

func printReport(steps []step) int {
	fmt.Println("Smoke Report")
	fmt.Println("============")
	failed := 0
	for _, st := range steps {
		status := "OK"
		if st.Error != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, st.Name)
		fmt.Printf("  Status: %d (%s)\n", st.Status, st.Duration)
		if st.Error != nil {
			fmt.Printf("  Error: %v\n", st.Error)
		}
	}
	fmt.Printf("Failed steps: %d\n", failed)
	return failed
}
