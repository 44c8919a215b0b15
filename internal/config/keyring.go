/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "AnnotView"

// TokenStore abstracts the OS keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// ErrNoPassword is returned when the keyring has no entry for the store.
var ErrNoPassword = errors.New("no store password in keyring")

// keyringKey identifies a store credential by driver and DSN.
func keyringKey(s StoreConfig) string { return "store:" + s.Driver + ":" + s.DSN }

// StorePassword reads the password for s from the keyring.
func StorePassword(s StoreConfig) (string, error) {
	pw, err := tokenStore.Get(keyringService, keyringKey(s))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoPassword
	}
	if err != nil {
		return "", fmt.Errorf("keyring: %w", err)
	}
	return pw, nil
}

// SetStorePassword saves the password for s in the keyring.
func SetStorePassword(s StoreConfig, pw string) error {
	if err := tokenStore.Set(keyringService, keyringKey(s), pw); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}

// ForgetStorePassword removes the password for s; a missing entry is fine.
func ForgetStorePassword(s StoreConfig) error {
	err := tokenStore.Delete(keyringService, keyringKey(s))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}
