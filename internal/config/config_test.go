package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

// TestLoadConfig_AppliesDefaults 验证未配置的字段会填充默认值
func TestLoadConfig_AppliesDefaults(t *testing.T) {
	for _, env := range []string{"HUGGINGFACE_API_KEY", "HF_QA_MODEL", "HF_API_URL"} {
		t.Setenv(env, "")
	}
	configPath := writeConfig(t, `
huggingface:
  api_key: "hf_from_file"
mysql:
  host: "db.internal"
  port: 3307
`)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "hf_from_file", config.HuggingFace.APIKey)
	assert.Equal(t, DefaultHFAPIURL, config.HuggingFace.APIURL)
	assert.Equal(t, DefaultHFModel, config.HuggingFace.Model)
	assert.Equal(t, 30*time.Second, config.HFTimeout())
	assert.Equal(t, 200, config.HuggingFace.MaxNewTokens)
	assert.InDelta(t, 0.7, config.HuggingFace.Temperature, 1e-9)
	assert.Equal(t, int64(10<<20), config.MaxUploadBytes())
	assert.Equal(t, ProviderMinIO, config.ObjectStorage.Provider)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, "candidate.events", config.RabbitMQ.CandidateEventsExchange)
	assert.Equal(t, "candidate.profile.created", config.RabbitMQ.CandidateCreatedRoutingKey)
	assert.Equal(t, 5, config.Outbox.MaxAttempts)
	assert.Equal(t, 365*24*time.Hour, config.MD5RecordTTL())

	assert.Equal(t, "db.internal", config.MySQL.Host)
	assert.Equal(t, 3307, config.MySQL.Port)
	assert.NoError(t, config.Validate())
}

// TestLoadConfig_EnvOverrides 验证环境变量覆盖文件中的值
func TestLoadConfig_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
huggingface:
  api_key: "hf_from_file"
  model: "file/model"
object_storage:
  provider: " S3 "
s3:
  bucket: "cv-bucket"
`)

	t.Setenv("HUGGINGFACE_API_KEY", "hf_from_env")
	t.Setenv("HF_QA_MODEL", "env/model")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("S3_ACCESS_KEY", "AKIA_TEST")
	t.Setenv("S3_SECRET_KEY", "s3-secret")

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "hf_from_env", config.HuggingFace.APIKey)
	assert.Equal(t, "env/model", config.HuggingFace.Model)
	assert.Equal(t, "secret", config.MySQL.Password)
	assert.Equal(t, "AKIA_TEST", config.S3.AccessKeyID)
	assert.Equal(t, "s3-secret", config.S3.SecretAccessKey)
	assert.Equal(t, ProviderS3, config.ObjectStorage.Provider, "provider 应去除空白并转小写")
	assert.Equal(t, "cv-bucket", config.S3.Bucket)
}

// TestLoadConfig_MissingFile 验证显式指定的文件不存在时返回错误
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoadConfig_InvalidYAML 验证语法错误的 YAML 返回解析错误
func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "huggingface: [unclosed")
	_, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析配置文件失败")
}

func TestValidate(t *testing.T) {
	config := createDefaultConfig()
	require.NoError(t, config.Validate())

	config.ObjectStorage.Provider = "gcs"
	assert.Error(t, config.Validate())

	config = createDefaultConfig()
	config.Tracing.Enabled = true
	config.Tracing.Endpoint = ""
	assert.Error(t, config.Validate())
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "resumes", config.MinIO.BucketName)
	assert.Equal(t, "resume_qa", config.MySQL.Database)

	assert.Error(t, CreateSampleConfig(path), "已存在的文件不应被覆盖")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, GetDuration("3s", time.Second))
	assert.Equal(t, time.Second, GetDuration("", time.Second))
	assert.Equal(t, time.Second, GetDuration("soon", time.Second))
}
