// Package templates renders the files placed in an image build context.
//
// Templates use %{ and } as action delimiters so that the shell and
// Dockerfile syntax they contain, $var, ${var} and {{ }}, passes through
// untouched.
package templates

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"al.essio.dev/pkg/shellescape"
	"github.com/Masterminds/sprig/v3"
	"github.com/moby/buildkit/frontend/dockerfile/parser"
	"mvdan.cc/sh/v3/syntax"

	"dent/internal/config"
	"dent/internal/errors"
	"dent/pkg/profile"
)

const (
	leftDelim  = "%{"
	rightDelim = "}"
)

// Names accepted by Render, as used by the -P option.
const (
	NameDockerfile = "dockerfile"
	NameSetupPkg   = "setup-pkg"
	NameSetupUser  = "setup-user"
)

//go:embed files/*
var files embed.FS

// Params are the per-invocation values substituted into the templates.
type Params struct {
	BaseImage       string
	PresetupCommand string
	Uname           string
	UID             string
	UGecos          string
	Useradd         string
}

// ParamsFor derives template parameters from a resolved configuration.
func ParamsFor(cfg *config.RunConfig) Params {
	return Params{
		BaseImage:       cfg.BaseImage,
		PresetupCommand: cfg.PresetupCommand(),
		Uname:           cfg.Account.Login,
		UID:             cfg.Account.UID,
		UGecos:          cfg.Account.Gecos,
		Useradd:         cfg.Profile.UseraddStrategy(),
	}
}

func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["shquote"] = shellescape.Quote
	return fm
}

func text(name string) (string, error) {
	data, err := files.ReadFile("files/" + name)
	if err != nil {
		return "", fmt.Errorf("template %s not found: %w", name, err)
	}
	return string(data), nil
}

func render(name, body string, data any) (string, error) {
	tmpl, err := template.New(name).
		Delims(leftDelim, rightDelim).
		Funcs(funcMap()).
		Option("missingkey=error").
		Parse(body)
	if err != nil {
		return "", errors.NewConfigError(
			fmt.Sprintf("Cannot parse template %s", name), err.Error(), "", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", errors.NewConfigError(
			fmt.Sprintf("Cannot render template %s", name), err.Error(), "", err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// setupScript renders the shared header followed by the named body.
func setupScript(name string, data any) (string, error) {
	header, err := text("setup-header")
	if err != nil {
		return "", err
	}
	body, err := text(name)
	if err != nil {
		return "", err
	}

	out, err := render(name, header+body, data)
	if err != nil {
		return "", err
	}
	if err := checkShell(name, out); err != nil {
		return "", err
	}
	return out, nil
}

// Dockerfile renders the Dockerfile for an image build.
func Dockerfile(p Params) (string, error) {
	body, err := text("Dockerfile")
	if err != nil {
		return "", err
	}

	out, err := render("Dockerfile", body, p)
	if err != nil {
		return "", err
	}
	if err := checkDockerfile(out); err != nil {
		return "", err
	}
	return out, nil
}

// SetupPkg renders the package installation script. It takes no
// parameters so its image layer is shared between users.
func SetupPkg() (string, error) {
	return setupScript("setup-pkg", struct{}{})
}

// SetupUser renders the account creation script.
func SetupUser(p Params) (string, error) {
	if p.Useradd == "" {
		p.Useradd = profile.UseraddGeneric
	}
	return setupScript("setup-user", p)
}

var renderers = map[string]func(Params) (string, error){
	NameDockerfile: Dockerfile,
	NameSetupPkg:   func(Params) (string, error) { return SetupPkg() },
	NameSetupUser:  SetupUser,
}

// Names returns the names accepted by Render.
func Names() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders the named file.
func Render(name string, p Params) (string, error) {
	fn, ok := renderers[name]
	if !ok {
		return "", errors.NewConfigError(
			fmt.Sprintf("Unknown file '%s'", name),
			"",
			"Choose one of: "+strings.Join(Names(), ", "),
			nil,
		)
	}
	return fn(p)
}

func checkShell(name, script string) error {
	p := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := p.Parse(strings.NewReader(script), name); err != nil {
		return errors.NewConfigError(
			fmt.Sprintf("Generated %s is not a valid shell script", name), err.Error(), "", err)
	}
	return nil
}

func checkDockerfile(content string) error {
	result, err := parser.Parse(strings.NewReader(content))
	if err != nil {
		return errors.NewConfigError("Generated Dockerfile is invalid", err.Error(), "", err)
	}
	if len(result.AST.Children) == 0 || !strings.EqualFold(result.AST.Children[0].Value, "from") {
		return errors.NewConfigError("Generated Dockerfile is invalid", "first instruction is not FROM", "", nil)
	}
	if next := result.AST.Children[0].Next; next == nil || next.Value == "" {
		return errors.NewConfigError(
			"Generated Dockerfile is invalid",
			"FROM has no base image",
			"Supply -B base-image",
			nil,
		)
	}
	return nil
}
