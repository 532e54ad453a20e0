package workflow

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"saveai-api/config"
	"saveai-api/logger"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Header is written above every generated workflow.
const Header = "# Code generated by saveai workflow generate. DO NOT EDIT.\n"

// File names written by Generate.
const (
	DeployFile      = "deploy.yml"
	GatedDeployFile = "gated-deploy.yml"
)

// Params names the AWS resources and branches a pipeline targets.
type Params struct {
	Region     string
	Repository string
	Cluster    string
	Service    string
	Branch     string
	// Upstream is the name of the workflow whose completion gates a deploy.
	Upstream string
}

// ParamsFromApp reads the deploy section of config.AppConfig.
func ParamsFromApp() Params {
	d := config.AppConfig.Deploy
	return Params{
		Region:     d.AWSRegion,
		Repository: d.ECRRepository,
		Cluster:    d.ECSCluster,
		Service:    d.ECSService,
		Branch:     d.Branch,
		Upstream:   d.UpstreamWorkflow,
	}
}

func (p Params) Validate() error {
	var errs []error
	for name, v := range map[string]string{
		"region":     p.Region,
		"repository": p.Repository,
		"cluster":    p.Cluster,
		"service":    p.Service,
		"branch":     p.Branch,
		"upstream":   p.Upstream,
	} {
		if v == "" {
			errs = append(errs, fmt.Errorf("deploy %s must be set", name))
		}
	}
	return errors.Join(errs...)
}

type Workflow struct {
	Name string            `yaml:"name"`
	On   Triggers          `yaml:"on"`
	Env  map[string]string `yaml:"env,omitempty"`
	Jobs map[string]*Job   `yaml:"jobs"`
}

type Triggers struct {
	Push        *PushTrigger        `yaml:"push,omitempty"`
	WorkflowRun *WorkflowRunTrigger `yaml:"workflow_run,omitempty"`
}

type PushTrigger struct {
	Branches []string `yaml:"branches"`
}

type WorkflowRunTrigger struct {
	Workflows []string `yaml:"workflows"`
	Types     []string `yaml:"types"`
	Branches  []string `yaml:"branches,omitempty"`
}

type Job struct {
	Name     string                `yaml:"name,omitempty"`
	RunsOn   string                `yaml:"runs-on"`
	Needs    []string              `yaml:"needs,omitempty"`
	If       string                `yaml:"if,omitempty"`
	Env      map[string]string     `yaml:"env,omitempty"`
	Services map[string]*Container `yaml:"services,omitempty"`
	Steps    []Step                `yaml:"steps"`
}

// Container is a service container started next to a job.
type Container struct {
	Image   string            `yaml:"image"`
	Env     map[string]string `yaml:"env,omitempty"`
	Ports   []string          `yaml:"ports,omitempty"`
	Options string            `yaml:"options,omitempty"`
}

type Step struct {
	Name string            `yaml:"name,omitempty"`
	ID   string            `yaml:"id,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
	Run  string            `yaml:"run,omitempty"`
}

// Write renders wf as YAML with a two-space indent after the generated-file header.
func Write(w io.Writer, wf *Workflow) error {
	if _, err := io.WriteString(w, Header); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return fmt.Errorf("encode workflow %q: %w", wf.Name, err)
	}
	return enc.Close()
}

// Generate writes both pipelines into dir and returns the paths written.
func Generate(dir string, p Params) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name string
		wf   *Workflow
	}{
		{DeployFile, BuildAndDeploy(p)},
		{GatedDeployFile, GatedDeploy(p)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.wf); err != nil {
			return nil, err
		}
		logger.Log.WithFields(logrus.Fields{
			"path":     path,
			"workflow": f.wf.Name,
		}).Info("Workflow written")
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, wf *Workflow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := Write(file, wf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
