package scan

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/ahjaypee/se-asia-scanner/internal/extraction"
	"github.com/ahjaypee/se-asia-scanner/internal/vision"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		recognizer  *mockRecognizer
		converter   *mockConverter
		locator     *mockLocator
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		// Some specs issue several requests; register enough handlers.
		for i := 0; i < 8; i++ {
			ghttpServer.AppendHandlers(server.ServeHTTP)
		}
	}

	newService := func() *Service {
		return NewService(db, recognizer, newMockStorage(), converter, locator, extraction.Config{})
	}

	BeforeEach(func() {
		db = newMockDB()
		converter = &mockConverter{rate: 0.03}
		locator = &mockLocator{code: "THB"}
		total := 350.0
		recognizer = &mockRecognizer{
			result: &vision.ScanResult{Total: &total, Commentary: "Looks fair."},
		}
		auth = BasicAuth{}
		service = newService()
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	uploadScan := func(fields map[string]string, withFile bool) *http.Response {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		if withFile {
			part, err := writer.CreateFormFile("file", "bill.jpg")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("image data"))
			Expect(err).NotTo(HaveOccurred())
		}
		for k, v := range fields {
			Expect(writer.WriteField(k, v)).To(Succeed())
		}
		Expect(writer.Close()).To(Succeed())

		req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/scans", &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	Describe("POST /api/scans", func() {
		When("the upload is valid", func() {
			It("returns the pipeline outcome with status Created", func() {
				resp := uploadScan(map[string]string{"mode": "receipt", "from": "THB", "to": "USD"}, true)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var outcome PipelineOutcome
				Expect(json.NewDecoder(resp.Body).Decode(&outcome)).To(Succeed())
				Expect(outcome.Display).To(Equal("10.50"))
				Expect(outcome.Scan).NotTo(BeNil())
			})
		})

		When("no file is provided", func() {
			It("returns status Bad Request", func() {
				resp := uploadScan(map[string]string{"from": "THB", "to": "USD"}, false)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("currency codes are missing", func() {
			It("returns status Bad Request", func() {
				resp := uploadScan(map[string]string{"mode": "receipt"}, true)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the scan mode is unknown", func() {
			It("returns status Bad Request", func() {
				resp := uploadScan(map[string]string{"mode": "selfie", "from": "THB", "to": "USD"}, true)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the rate source is down", func() {
			BeforeEach(func() {
				converter.convertErr = ErrRateUnavailable
			})

			It("returns status Bad Gateway with the error kind", func() {
				resp := uploadScan(map[string]string{"from": "THB", "to": "USD"}, true)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

				var outcome PipelineOutcome
				Expect(json.NewDecoder(resp.Body).Decode(&outcome)).To(Succeed())
				Expect(outcome.Errors).To(ContainElement(KindRateUnavailable))
			})
		})

		When("no amount can be extracted", func() {
			BeforeEach(func() {
				recognizer.result = &vision.ScanResult{Text: "pad thai with shrimp"}
			})

			It("returns status Unprocessable Entity", func() {
				resp := uploadScan(map[string]string{"from": "THB", "to": "USD"}, true)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			})
		})
	})

	Describe("POST /api/convert", func() {
		It("converts a manual amount", func() {
			body := bytes.NewBufferString(`{"amount": 100, "from": "THB", "to": "USD"}`)
			resp, err := http.Post(ghttpServer.URL()+"/api/convert", "application/json", body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result struct {
				Display string `json:"display"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
			Expect(result.Display).To(Equal("3.00"))
		})

		It("rejects a negative amount", func() {
			body := bytes.NewBufferString(`{"amount": -5, "from": "USD", "to": "EUR"}`)
			resp, err := http.Post(ghttpServer.URL()+"/api/convert", "application/json", body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			body := bytes.NewBufferString(`not json`)
			resp, err := http.Post(ghttpServer.URL()+"/api/convert", "application/json", body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/result", func() {
		When("nothing has been converted yet", func() {
			It("returns status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/result")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})

		When("a conversion has been displayed", func() {
			BeforeEach(func() {
				body := bytes.NewBufferString(`{"amount": 100, "from": "THB", "to": "USD"}`)
				resp, err := http.Post(ghttpServer.URL()+"/api/convert", "application/json", body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
			})

			It("returns the latest outcome", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/result")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var outcome PipelineOutcome
				Expect(json.NewDecoder(resp.Body).Decode(&outcome)).To(Succeed())
				Expect(outcome.Display).To(Equal("3.00"))
			})
		})
	})

	Describe("GET /api/currency/suggest", func() {
		It("returns the located currency", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/currency/suggest")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["currency"]).To(Equal("THB"))
		})

		When("the locator fails", func() {
			BeforeEach(func() {
				locator.locateErr = errors.New("rate limited")
			})

			It("returns status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/currency/suggest")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("GET /api/scans", func() {
		When("scans exist", func() {
			BeforeEach(func() {
				db.scans["id1"] = &Scan{ID: "id1"}
				db.scans["id2"] = &Scan{ID: "id2"}
			})

			It("returns all scans as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var scans []*Scan
				Expect(json.NewDecoder(resp.Body).Decode(&scans)).To(Succeed())
				Expect(scans).To(HaveLen(2))
			})
		})

		When("no scans exist", func() {
			It("returns an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				var scans []*Scan
				Expect(json.Unmarshal(body, &scans)).To(Succeed())
				Expect(scans).To(BeEmpty())
			})
		})
	})

	Describe("DELETE /api/scans/{id}", func() {
		BeforeEach(func() {
			db.scans["id1"] = &Scan{ID: "id1", Filename: "id1_bill.jpg"}
		})

		It("deletes the scan", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/scans/id1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			resp.Body.Close()
			Expect(db.scans).To(BeEmpty())
		})
	})

	Describe("trips", func() {
		BeforeEach(func() {
			db.scans["s1"] = &Scan{ID: "s1", ConvertedCents: 1050}
		})

		It("creates a trip and fetches it with its scans", func() {
			body := bytes.NewBufferString(`{"name": "Bangkok", "scan_ids": ["s1"]}`)
			resp, err := http.Post(ghttpServer.URL()+"/api/trips", "application/json", body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var trip Trip
			Expect(json.NewDecoder(resp.Body).Decode(&trip)).To(Succeed())
			Expect(trip.TotalCents).To(Equal(1050))

			getResp, err := http.Get(ghttpServer.URL() + "/api/trips/" + trip.ID)
			Expect(err).NotTo(HaveOccurred())
			defer getResp.Body.Close()
			Expect(getResp.StatusCode).To(Equal(http.StatusOK))

			var payload struct {
				Trip  *Trip   `json:"trip"`
				Scans []*Scan `json:"scans"`
			}
			Expect(json.NewDecoder(getResp.Body).Decode(&payload)).To(Succeed())
			Expect(payload.Scans).To(HaveLen(1))
		})

		It("rejects a trip with no scans", func() {
			body := bytes.NewBufferString(`{"name": "Bangkok", "scan_ids": []}`)
			resp, err := http.Post(ghttpServer.URL()+"/api/trips", "application/json", body)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp.Body.Close()
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "traveler", Password: "secret"}
			setupServer()
		})

		It("rejects requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/scans")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			resp.Body.Close()
		})

		It("accepts requests with valid credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/scans", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("traveler:secret")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("rejects requests with wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/scans", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("traveler:wrong")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			resp.Body.Close()
		})
	})
})
