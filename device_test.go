package qkernel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeProviderServer emulates the provider REST API: device listing, job
// submission, status polling, and result retrieval.
type fakeProviderServer struct {
	mu          sync.Mutex
	descriptors []DeviceDescriptor
	polls       int
	pollsBefore int // polls returning "queued" before completion
	failJob     bool
	lastRequest jobRequest
}

func (f *fakeProviderServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.descriptors)
	})
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewDecoder(r.Body).Decode(&f.lastRequest)
		json.NewEncoder(w).Encode(jobStatus{ID: "job-1", Status: "queued"})
	})
	mux.HandleFunc("GET /jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.polls++
		status := "completed"
		if f.polls <= f.pollsBefore {
			status = "queued"
		}
		if f.failJob {
			status = "failed"
		}
		json.NewEncoder(w).Encode(jobStatus{ID: "job-1", Status: status, Error: "calibration drift"})
	})
	mux.HandleFunc("GET /jobs/job-1/results", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		payload := jobResults{}
		for i := range f.lastRequest.Circuits {
			n := f.lastRequest.Circuits[i].Qubits
			key := AllZeroKey(n)
			other := strings.Repeat("1", n)
			payload.Results = append(payload.Results, struct {
				Counts map[string]int `json:"counts"`
			}{Counts: map[string]int{
				key:   f.lastRequest.Shots - i,
				other: i,
			}})
		}
		json.NewEncoder(w).Encode(payload)
	})
	return mux
}

func TestRemoteProvider(t *testing.T) {
	Convey("Given a provider API with three devices", t, func() {
		fake := &fakeProviderServer{
			descriptors: []DeviceDescriptor{
				{Name: "falcon", Qubits: 2, PendingJobs: 10, Operational: true},
				{Name: "eagle", Qubits: 3, PendingJobs: 2, Operational: true},
				{Name: "condor", Qubits: 5, PendingJobs: 7, Operational: true},
			},
		}
		server := httptest.NewServer(fake.handler())
		Reset(server.Close)

		provider := NewRemoteProvider(server.URL, "token")

		Convey("Backends should reflect the published descriptors", func() {
			backends, err := provider.Backends(context.Background())
			So(err, ShouldBeNil)
			So(backends, ShouldHaveLength, 3)
			So(backends[1].Name(), ShouldEqual, "eagle")
			So(backends[1].Qubits(), ShouldEqual, 3)
			So(backends[1].PendingJobs(), ShouldEqual, 2)
			So(backends[1].IsSimulator(), ShouldBeFalse)
		})

		Convey("Selection over the listing should follow the least-busy rule", func() {
			backends, err := provider.Backends(context.Background())
			So(err, ShouldBeNil)

			chosen, err := LeastBusy(backends, 3)
			So(err, ShouldBeNil)
			So(chosen.Name(), ShouldEqual, "eagle")
		})
	})
}

func TestDeviceExecute(t *testing.T) {
	Convey("Given a device behind the provider API", t, func() {
		fake := &fakeProviderServer{
			descriptors: []DeviceDescriptor{
				{Name: "eagle", Qubits: 3, Operational: true, MaxBatchSize: 16},
			},
			pollsBefore: 2,
		}
		server := httptest.NewServer(fake.handler())
		Reset(server.Close)

		provider := NewRemoteProvider(server.URL, "token")
		backends, err := provider.Backends(context.Background())
		So(err, ShouldBeNil)
		device := backends[0].(*Device)
		device.pollInterval = time.Millisecond

		Convey("Execute should submit, poll to completion, and return ordered counts", func() {
			circuits := []Circuit{
				NewCircuit(2).Append(hadamard(0)).MeasureAll(),
				NewCircuit(2).Append(hadamard(1)).MeasureAll(),
				NewCircuit(2).Append(cnot(0, 1)).MeasureAll(),
			}

			results, err := device.Execute(context.Background(), NewExecutionBatch(circuits), 100)
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 3)
			for i, dist := range results {
				So(dist.Shots, ShouldEqual, 100)
				So(dist.Counts["00"], ShouldEqual, 100-i)
				So(dist.Validate(0), ShouldBeNil)
			}
			So(fake.polls, ShouldBeGreaterThanOrEqualTo, 3)
			So(fake.lastRequest.Device, ShouldEqual, "eagle")
		})

		Convey("A failed job should surface with no results", func() {
			fake.failJob = true
			circuits := []Circuit{NewCircuit(2).MeasureAll()}

			results, err := device.Execute(context.Background(), NewExecutionBatch(circuits), 100)
			So(results, ShouldBeNil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "calibration drift")
		})

		Convey("A zero shot count should be rejected before submission", func() {
			_, err := device.Execute(context.Background(), NewExecutionBatch(nil), 0)
			So(err, ShouldNotBeNil)
		})

		Convey("Context expiry during queueing should abort the poll loop", func() {
			fake.pollsBefore = 1 << 20
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			circuits := []Circuit{NewCircuit(2).MeasureAll()}
			_, err := device.Execute(ctx, NewExecutionBatch(circuits), 100)
			So(err, ShouldNotBeNil)
		})
	})
}
