package qkernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DeviceDescriptor is the provider's published view of one device: its
// capacity, queue state and batch limits.
type DeviceDescriptor struct {
	Name         string `json:"name"`
	Qubits       int    `json:"qubits"`
	PendingJobs  int    `json:"pending_jobs"`
	Operational  bool   `json:"operational"`
	MaxBatchSize int    `json:"max_batch_size"`
}

/*
RemoteProvider lists the devices behind a provider's REST API. Descriptors
are fetched once per call; queue lengths are a snapshot, which is all the
least-busy heuristic needs.
*/
type RemoteProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemoteProvider creates a provider client for the given API root.
func NewRemoteProvider(baseURL, token string) *RemoteProvider {
	return &RemoteProvider{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Backends implements Provider by querying the device listing endpoint.
func (p *RemoteProvider) Backends(ctx context.Context) ([]Backend, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/devices", nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list devices: unexpected status %s", resp.Status)
	}

	var descriptors []DeviceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	backends := make([]Backend, len(descriptors))
	for i, d := range descriptors {
		backends[i] = &Device{provider: p, descriptor: d, pollInterval: time.Second}
	}
	return backends, nil
}

func (p *RemoteProvider) authorize(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.Header.Set("Content-Type", "application/json")
}

/*
Device is a remote hardware Backend reached over the provider's REST API.
Execution is submit-then-poll: the batch becomes one job, and the device
blocks the caller (with queueing) until the job completes, fails, or the
context expires. There is no partial consumption: a failed or truncated
job surfaces as an error with no results.
*/
type Device struct {
	provider     *RemoteProvider
	descriptor   DeviceDescriptor
	pollInterval time.Duration
}

func (d *Device) Name() string      { return d.descriptor.Name }
func (d *Device) Qubits() int       { return d.descriptor.Qubits }
func (d *Device) Operational() bool { return d.descriptor.Operational }
func (d *Device) PendingJobs() int  { return d.descriptor.PendingJobs }
func (d *Device) IsSimulator() bool { return false }
func (d *Device) MaxBatchSize() int { return d.descriptor.MaxBatchSize }

type wireGate struct {
	Name   string  `json:"name"`
	Qubits []int   `json:"qubits"`
	Theta  float64 `json:"theta,omitempty"`
}

type wireCircuit struct {
	Qubits  int        `json:"qubits"`
	Gates   []wireGate `json:"gates"`
	Measure bool       `json:"measure"`
}

type jobRequest struct {
	Device   string        `json:"device"`
	Shots    int           `json:"shots"`
	Circuits []wireCircuit `json:"circuits"`
}

type jobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "queued", "running", "completed", "failed"
	Error  string `json:"error,omitempty"`
}

type jobResults struct {
	Results []struct {
		Counts map[string]int `json:"counts"`
	} `json:"results"`
}

// Execute submits the batch as one job and polls until completion.
func (d *Device) Execute(ctx context.Context, batch ExecutionBatch, shots int) ([]OutcomeDistribution, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("device execution requires a positive shot count, got %d", shots)
	}

	jobID, err := d.submit(ctx, batch, shots)
	if err != nil {
		return nil, err
	}

	if err := d.awaitCompletion(ctx, jobID); err != nil {
		return nil, err
	}

	return d.results(ctx, jobID, batch.Len(), shots)
}

func (d *Device) submit(ctx context.Context, batch ExecutionBatch, shots int) (string, error) {
	payload := jobRequest{
		Device:   d.descriptor.Name,
		Shots:    shots,
		Circuits: make([]wireCircuit, batch.Len()),
	}
	for i, c := range batch.Circuits {
		wc := wireCircuit{Qubits: c.Qubits(), Measure: c.Measured()}
		for _, g := range c.Gates() {
			wc.Gates = append(wc.Gates, wireGate{Name: string(g.Name), Qubits: g.Qubits, Theta: g.Theta})
		}
		payload.Circuits[i] = wc
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.provider.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	d.provider.authorize(req)

	resp, err := d.provider.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("submit job: unexpected status %s", resp.Status)
	}

	var status jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	return status.ID, nil
}

// awaitCompletion polls job status with exponential backoff, capped at
// eight poll intervals, until the job leaves the queue.
func (d *Device) awaitCompletion(ctx context.Context, jobID string) error {
	backoff := &ExponentialBackoff{Initial: d.pollInterval}
	maxDelay := 8 * d.pollInterval

	for attempt := 1; ; attempt++ {
		status, err := d.status(ctx, jobID)
		if err != nil {
			return err
		}
		switch status.Status {
		case "completed":
			return nil
		case "failed":
			return fmt.Errorf("job %s failed on device %s: %s", jobID, d.descriptor.Name, status.Error)
		}

		delay := backoff.NextDelay(attempt)
		if delay > maxDelay {
			delay = maxDelay
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("job %s: %w", jobID, ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (d *Device) status(ctx context.Context, jobID string) (jobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.provider.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return jobStatus{}, err
	}
	d.provider.authorize(req)

	resp, err := d.provider.client.Do(req)
	if err != nil {
		return jobStatus{}, fmt.Errorf("job status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return jobStatus{}, fmt.Errorf("job status: unexpected status %s", resp.Status)
	}

	var status jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return jobStatus{}, fmt.Errorf("job status: %w", err)
	}
	return status, nil
}

func (d *Device) results(ctx context.Context, jobID string, expected, shots int) ([]OutcomeDistribution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.provider.baseURL+"/jobs/"+jobID+"/results", nil)
	if err != nil {
		return nil, err
	}
	d.provider.authorize(req)

	resp, err := d.provider.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("job results: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job results: unexpected status %s", resp.Status)
	}

	var payload jobResults
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("job results: %w", err)
	}
	if len(payload.Results) != expected {
		return nil, fmt.Errorf("job results: got %d distributions for %d circuits", len(payload.Results), expected)
	}

	out := make([]OutcomeDistribution, expected)
	for i, r := range payload.Results {
		out[i] = OutcomeDistribution{Counts: r.Counts, Shots: shots}
	}
	return out, nil
}
