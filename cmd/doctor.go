package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/manager"
)

// doctorCommand checks the configured directories and every edit
// configuration in the config directory.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taxocard doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fmt.Println("taxocard Doctor")
	fmt.Println("===============")
	fmt.Println()

	allOK := true

	fmt.Printf("Project root: %s\n", cfg.ProjectRoot)
	fmt.Println()

	// Config directory must exist; the others are created on demand.
	allOK = checkDir("Config directory", cfg.ConfigDir, true) && allOK
	allOK = checkDir("Card directory", cfg.CardDir, false) && allOK
	allOK = checkDir("Inbox directory", cfg.InboxDir, false) && allOK

	fmt.Println("Edit configurations:")
	configs, err := filepath.Glob(filepath.Join(cfg.ConfigDir, "*.json"))
	if err != nil {
		return fmt.Errorf("list edit configs: %w", err)
	}
	sort.Strings(configs)
	if len(configs) == 0 {
		fmt.Println("  ⚠️  None found")
	}
	valid := 0
	for _, path := range configs {
		if problem := checkEditConfig(path); problem != "" {
			fmt.Printf("  ❌ %s: %s\n", filepath.Base(path), problem)
			allOK = false
			continue
		}
		valid++
		if *verbose {
			fmt.Printf("  ✅ %s\n", filepath.Base(path))
		}
	}
	if len(configs) > 0 {
		fmt.Printf("  %d of %d valid\n", valid, len(configs))
	}
	fmt.Println()

	fmt.Println("Stored cards:")
	keys, err := manager.NewDirStore(cfg.CardDir).List()
	if err != nil {
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	} else {
		missing := 0
		for _, key := range keys {
			if _, err := os.Stat(filepath.Join(cfg.ConfigDir, key.ConfigFileName())); err != nil {
				fmt.Printf("  ⚠️  %s: no edit configuration\n", key.CardFileName())
				missing++
			}
		}
		fmt.Printf("  %d card(s), %d without configuration\n", len(keys), missing)
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// checkDir prints the state of a directory. A missing optional directory
// is only a warning.
func checkDir(label, dir string, required bool) bool {
	fmt.Printf("%s: %s\n", label, dir)
	defer fmt.Println()

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err) && !required:
		fmt.Println("  ⚠️  Not found (will be created when needed)")
		return true
	case os.IsNotExist(err):
		fmt.Println("  ❌ Not found")
		return false
	case err != nil:
		fmt.Printf("  ❌ Error: %v\n", err)
		return false
	case !info.IsDir():
		fmt.Println("  ❌ Error: path is not a directory")
		return false
	}
	fmt.Println("  ✅ OK")
	return true
}

// checkEditConfig returns a description of what is wrong with a
// configuration file, or "" when it is usable.
func checkEditConfig(path string) string {
	taxo, instr, ok := editconfig.ParseFileName(filepath.Base(path))
	if !ok {
		return "name is not {taxoid}_{instrumentid}.json"
	}
	cfg, err := editconfig.Load(path)
	if err != nil {
		return err.Error()
	}
	if cfg.TaxoID != taxo || cfg.InstrumentID != instr {
		return fmt.Sprintf("describes %d_%s", cfg.TaxoID, cfg.InstrumentID)
	}
	return ""
}
