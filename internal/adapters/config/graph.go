package config

import (
	"path"
	"path/filepath"
	"slices"
	"strconv"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/zerr"
)

// buildGraph derives the built-in tasks from cfg, adds the user defined shell
// tasks and validates the result.
func buildGraph(cfg *domain.BuildConfig, userTasks map[string]*TaskDTO) (*domain.Graph, error) {
	g := domain.NewGraph()
	g.SetRoot(cfg.Root)

	env := map[string]string{domain.DevEnvVar: strconv.FormatBool(cfg.Dev)}
	builtin := func(name string, action domain.Action, bundle string, inputs, outputs, deps []string) *domain.Task {
		return &domain.Task{
			Name:         domain.NewInternedString(name),
			Action:       action,
			Bundle:       bundle,
			Inputs:       canonicalizeStrings(inputs),
			Outputs:      canonicalizeStrings(outputs),
			Dependencies: canonicalizeStrings(deps),
			Environment:  env,
			WorkingDir:   domain.NewInternedString(cfg.Root),
		}
	}

	var tasks []*domain.Task

	styleTasks := make([]string, 0, len(cfg.Styles))
	for _, name := range sortedKeys(cfg.Styles) {
		b := cfg.Styles[name]
		inputs := []string{sourceTree(b.Entry)}
		if b.EmbedImages != nil {
			inputs = append(inputs, b.EmbedImages.Dir+"/**/*")
		}
		taskName := domain.StyleTaskName(name)
		styleTasks = append(styleTasks, taskName)
		tasks = append(tasks, builtin(taskName, domain.ActionStyles, name, inputs, []string{b.Output, b.SourceMap()}, nil))
	}
	tasks = append(tasks, builtin(domain.TaskStyles, domain.ActionGroup, "", nil, nil, styleTasks))

	scriptTasks := make([]string, 0, len(cfg.Scripts))
	for _, name := range sortedKeys(cfg.Scripts) {
		b := cfg.Scripts[name]
		taskName := domain.ScriptTaskName(name)
		scriptTasks = append(scriptTasks, taskName)
		tasks = append(tasks, builtin(taskName, domain.ActionScripts, name,
			[]string{sourceTree(b.Entry)}, []string{b.Output, b.Output + ".map"}, nil))
	}
	tasks = append(tasks, builtin(domain.TaskScripts, domain.ActionGroup, "", nil, nil, scriptTasks))

	tasks = append(tasks,
		builtin(domain.TaskModernizr, domain.ActionFeatures, "", nil, []string{cfg.Shame.FeatureOutput()}, nil),
		builtin(domain.TaskScriptsShame, domain.ActionShame, "",
			[]string{cfg.Shame.Src + "/**/*"}, []string{cfg.Shame.Output}, []string{domain.TaskModernizr}),
		builtin(domain.TaskFavicon, domain.ActionFavicon, "", []string{cfg.Favicon.Src}, []string{cfg.Favicon.Output}, nil),
		builtin(domain.TaskSvgIcons, domain.ActionSprite, "", []string{cfg.Icons.Src + "/**/*.svg"}, []string{cfg.Icons.Output}, nil),
		builtin(domain.TaskImages, domain.ActionImages, "",
			[]string{cfg.Images.Src + "/**/*"}, []string{cfg.Images.Output}, []string{domain.TaskFavicon, domain.TaskSvgIcons}),
		// Page names are only known after rendering, so assemble declares no outputs and always runs.
		builtin(domain.TaskAssemble, domain.ActionAssemble, "", []string{
			cfg.Assemble.Layouts + "/**/*",
			cfg.Assemble.Materials + "/**/*",
			cfg.Assemble.Data + "/**/*",
			cfg.Assemble.Docs + "/**/*",
			cfg.Assemble.Views + "/**/*",
		}, nil, nil),
	)

	// The checks read compiled output, so they run after every style bundle.
	testInputs := make([]string, 0, len(cfg.Test.Bundles))
	for _, name := range cfg.Test.Bundles {
		testInputs = append(testInputs, cfg.Styles[name].Output)
	}
	tasks = append(tasks, builtin(domain.TaskTest, domain.ActionStyleStats, "", testInputs, nil, []string{domain.TaskStyles}))

	for _, task := range tasks {
		if err := g.AddTask(task); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(userTasks) {
		task, err := buildUserTask(name, userTasks[name], cfg.Root)
		if err != nil {
			return nil, err
		}
		if err := g.AddTask(task); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// sourceTree returns a glob over the directory holding an entry point.
func sourceTree(entry string) string {
	return path.Dir(entry) + "/**/*"
}

func buildUserTask(name string, dto *TaskDTO, root string) (*domain.Task, error) {
	if err := validateTaskName(name); err != nil {
		return nil, err
	}
	if dto == nil || len(dto.Cmd) == 0 {
		return nil, zerr.With(zerr.With(domain.ErrConfigInvalid, "task", name), "reason", "cmd is required")
	}

	return &domain.Task{
		Name:         domain.NewInternedString(name),
		Action:       domain.ActionCommand,
		Command:      dto.Cmd,
		Inputs:       canonicalizeStrings(dto.Input),
		Outputs:      canonicalizeStrings(dto.Target),
		Dependencies: canonicalizeStrings(dto.DependsOn),
		Environment:  dto.Environment,
		WorkingDir:   resolveTaskWorkingDir(root, dto.WorkingDir),
	}, nil
}

// validateTaskName rejects the reserved name and names that could collide with
// the namespaced built-in tasks.
func validateTaskName(name string) error {
	if name == domain.TaskAll {
		return zerr.With(domain.ErrReservedTaskName, "task_name", name)
	}
	if !validTaskNameRegex.MatchString(name) {
		err := zerr.With(domain.ErrConfigInvalid, "field", "tasks")
		return zerr.With(err, "task_name", name)
	}
	return nil
}

// canonicalizeStrings sorts, deduplicates and interns strs.
func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return domain.NewInternedStrings(slices.Compact(sorted))
}

// resolveTaskWorkingDir resolves a configured working directory against the project root.
func resolveTaskWorkingDir(root, configured string) domain.InternedString {
	if configured == "" {
		return domain.NewInternedString(root)
	}
	if filepath.IsAbs(configured) {
		return domain.NewInternedString(filepath.Clean(configured))
	}
	return domain.NewInternedString(filepath.Clean(filepath.Join(root, configured)))
}
