package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/security"
	"github.com/ravensys/netcollect/pkg/storage"
)

var vaultCmd = &cobra.Command{
	Use: "vault",
	Short: "Manage the credential vault (salt, verifier, unlock checks)",
}

var vaultInitCmd = &cobra.Command{
	Use: "init",
	Short: "Initialize the vault with a new password",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "open store", err)
		}
		defer store.Close()

		if _, _, ok, err := store.VaultMeta(); err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "read vault meta", err)
		} else if ok {
			return collectorerr.New(collectorerr.ConfigError, "vault already initialized")
		}

		password, err := resolvePassword(cmd)
		if err != nil {
			return err
		}

		salt, err := security.NewSalt()
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "generate salt", err)
		}
		key := security.DeriveKey(password, salt)
		verifier, err := security.NewVerifier(key)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "build verifier", err)
		}
		if err := store.SaveVaultMeta(salt, verifier); err != nil {
			return collectorerr.Wrap(collectorerr.PersistenceError, "save vault meta", err)
		}

		fmt.Println("vault initialized")
		return nil
	},
}

var vaultUnlockCmd = &cobra.Command{
	Use: "unlock",
	Short: "Verify the vault password without persisting a session",
	Long: `unlock checks that the supplied password matches the vault's stored
verifier. Because netcollect runs as a one-shot CLI rather than a daemon,
no session survives this process; job run and batch run each derive their
own session the same way from the same password source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "open store", err)
		}
		defer store.Close()

		session, err := unlockSession(cmd, store)
		if err != nil {
			return err
		}
		session.Lock()

		fmt.Println("vault password verified")
		return nil
	},
}

var vaultLockCmd = &cobra.Command{
	Use: "lock",
	Short: "No-op: confirms no vault session persists beyond this process",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("vault has no persistent session in this CLI; nothing to lock")
		return nil
	},
}

func init() {
	vaultInitCmd.Flags().String("password", "", "Vault password (prefer the env var fallback or the prompt)")
	vaultUnlockCmd.Flags().String("password", "", "Vault password (prefer the env var fallback or the prompt)")

	vaultCmd.AddCommand(vaultInitCmd)
	vaultCmd.AddCommand(vaultUnlockCmd)
	vaultCmd.AddCommand(vaultLockCmd)
}

// resolvePassword resolves the vault password from --password, then the
// configured environment variable, then an interactive stdin prompt.
func resolvePassword(cmd *cobra.Command) (string, error) {
	if flag, _ := cmd.Flags().GetString("password"); flag != "" {
		return flag, nil
	}
	if pw, ok := cfg.VaultPassword(); ok {
		return pw, nil
	}
	fmt.Print("vault password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", collectorerr.Wrap(collectorerr.ConfigError, "read password", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", collectorerr.New(collectorerr.ConfigError, "no vault password provided")
	}
	return password, nil
}

// unlockSession resolves the vault password and returns an unlocked
// session, or a SecretStoreLocked error if the vault is uninitialized or
// the password is wrong.
func unlockSession(cmd *cobra.Command, store storage.SecretStore) (*security.Session, error) {
	salt, verifier, ok, err := store.VaultMeta()
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "read vault meta", err)
	}
	if !ok {
		return nil, collectorerr.New(collectorerr.SecretStoreLocked, "vault not initialized; run \"vault init\" first")
	}

	password, err := resolvePassword(cmd)
	if err != nil {
		return nil, err
	}

	session := security.NewSession()
	if err := session.Unlock(password, salt, verifier); err != nil {
		return nil, err
	}
	return session, nil
}
