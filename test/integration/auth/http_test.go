// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

//go:build integration

package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/latchkey/latchkey/internal/web"
)

const strongPassword = "correct-horse-battery-staple-42"

type response struct {
	status  int
	body    string
	cookies []*http.Cookie
}

func (r response) errorInfo() string {
	var out struct {
		ErrorInfo string `json:"errorInfo"`
	}
	Expect(json.Unmarshal([]byte(r.body), &out)).To(Succeed(), r.body)
	return out.ErrorInfo
}

func newBrowser() *http.Client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &http.Client{Jar: jar}
}

func call(c *http.Client, method, path, body string) response {
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return response{status: resp.StatusCode, body: string(b), cookies: resp.Cookies()}
}

func registerBody(username, email, password string) string {
	b, err := json.Marshal(map[string]string{"username": username, "email": email, "password": password})
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

func loginBody(email, password string) string {
	b, err := json.Marshal(map[string]string{"email": email, "password": password})
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

var _ = Describe("Auth API", func() {
	BeforeEach(func() {
		env.truncate()
	})

	Describe("register", func() {
		It("creates a user, credential and session and sets the cookie", func() {
			resp := call(newBrowser(), http.MethodPost, "/auth/register", registerBody("alice", "alice@example.com", strongPassword))

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.cookies).To(HaveLen(1))
			c := resp.cookies[0]
			Expect(c.Name).To(Equal(web.SessionCookieName))
			Expect(c.HttpOnly).To(BeTrue())
			Expect(c.SameSite).To(Equal(http.SameSiteStrictMode))
			Expect(c.Path).To(Equal("/"))

			Expect(env.count("users")).To(Equal(1))
			Expect(env.count("credentials")).To(Equal(1))
			Expect(env.count("sessions")).To(Equal(1))
		})

		It("stores an argon2id PHC hash, never the password", func() {
			call(newBrowser(), http.MethodPost, "/auth/register", registerBody("alice", "alice@example.com", strongPassword))

			var stored string
			Expect(env.pool.QueryRow(env.ctx,
				"SELECT password FROM credentials WHERE email = $1", "alice@example.com").Scan(&stored)).To(Succeed())
			Expect(stored).To(HavePrefix("$argon2id$v=19$"))
			Expect(stored).NotTo(ContainSubstring(strongPassword))
		})

		It("rejects a duplicate email without writing anything", func() {
			Expect(call(newBrowser(), http.MethodPost, "/auth/register",
				registerBody("alice", "alice@example.com", strongPassword)).status).To(Equal(http.StatusOK))

			resp := call(newBrowser(), http.MethodPost, "/auth/register",
				registerBody("alice2", "alice@example.com", strongPassword+"-other"))
			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.errorInfo()).To(Equal("User already exists"))
			Expect(resp.cookies).To(BeEmpty())
			Expect(env.count("users")).To(Equal(1))
		})

		It("rejects a weak password and rolls back", func() {
			resp := call(newBrowser(), http.MethodPost, "/auth/register", registerBody("bob", "bob@example.com", "password1"))
			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.errorInfo()).To(Equal("Password is too weak"))
			Expect(env.count("users")).To(Equal(0))
		})

		It("lets exactly one of many concurrent registrations for an email win", func() {
			const workers = 6
			statuses := make([]int, workers)
			var wg sync.WaitGroup
			for i := range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					statuses[i] = call(newBrowser(), http.MethodPost, "/auth/register",
						registerBody("racer", "race@example.com", strongPassword)).status
				}()
			}
			wg.Wait()

			Expect(statuses).To(ContainElement(http.StatusOK))
			ok := 0
			for _, s := range statuses {
				if s == http.StatusOK {
					ok++
				} else {
					Expect(s).To(Equal(http.StatusBadRequest))
				}
			}
			Expect(ok).To(Equal(1))
			Expect(env.count("credentials")).To(Equal(1))
			Expect(env.count("users")).To(Equal(1))
		})
	})

	Describe("login, session guard and logout", func() {
		var browser *http.Client

		BeforeEach(func() {
			browser = newBrowser()
			Expect(call(browser, http.MethodPost, "/auth/register",
				registerBody("alice", "alice@example.com", strongPassword)).status).To(Equal(http.StatusOK))
		})

		It("walks the whole session lifecycle", func() {
			me := call(browser, http.MethodGet, "/auth/me", "")
			Expect(me.status).To(Equal(http.StatusOK))
			Expect(me.body).To(ContainSubstring(`"userId"`))

			Expect(call(browser, http.MethodPost, "/auth/logout", "").status).To(Equal(http.StatusOK))
			Expect(env.count("sessions")).To(Equal(0))
			Expect(call(browser, http.MethodGet, "/auth/me", "").status).To(Equal(http.StatusUnauthorized))

			Expect(call(browser, http.MethodPost, "/auth/login",
				loginBody("alice@example.com", strongPassword)).status).To(Equal(http.StatusOK))
			Expect(env.count("sessions")).To(Equal(1))
			Expect(call(browser, http.MethodGet, "/auth/me", "").status).To(Equal(http.StatusOK))
		})

		It("opens an independent session per login", func() {
			other := newBrowser()
			Expect(call(other, http.MethodPost, "/auth/login",
				loginBody("alice@example.com", strongPassword)).status).To(Equal(http.StatusOK))
			Expect(env.count("sessions")).To(Equal(2))

			Expect(call(browser, http.MethodPost, "/auth/logout", "").status).To(Equal(http.StatusOK))
			Expect(call(other, http.MethodGet, "/auth/me", "").status).To(Equal(http.StatusOK))
		})

		It("answers a wrong password and an unknown email identically", func() {
			wrong := call(newBrowser(), http.MethodPost, "/auth/login", loginBody("alice@example.com", "nope"))
			unknown := call(newBrowser(), http.MethodPost, "/auth/login", loginBody("nobody@example.com", "nope"))

			Expect(wrong.status).To(Equal(http.StatusUnauthorized))
			Expect(unknown.status).To(Equal(wrong.status))
			Expect(unknown.body).To(Equal(wrong.body))
			Expect(wrong.errorInfo()).To(Equal("Incorrect email or password"))
		})

		It("rejects a malformed session cookie on logout", func() {
			req, err := http.NewRequestWithContext(env.ctx, http.MethodPost, env.server.URL+"/auth/logout", nil)
			Expect(err).NotTo(HaveOccurred())
			req.AddCookie(&http.Cookie{Name: web.SessionCookieName, Value: "not-a-uuid"})
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(env.count("sessions")).To(Equal(1))
		})

		It("counts outcomes in the metrics", func() {
			before := testutil.ToFloat64(env.metrics.AuthOutcomes.WithLabelValues("login", "wrong_login_or_password"))
			call(newBrowser(), http.MethodPost, "/auth/login", loginBody("alice@example.com", "nope"))
			after := testutil.ToFloat64(env.metrics.AuthOutcomes.WithLabelValues("login", "wrong_login_or_password"))
			Expect(after - before).To(BeNumerically("==", 1))
		})
	})

	It("answers unknown routes with plain text", func() {
		resp := call(newBrowser(), http.MethodGet, "/does-not-exist", "")
		Expect(resp.status).To(Equal(http.StatusNotFound))
		Expect(resp.body).To(Equal("Endpoint not found"))
	})
})
