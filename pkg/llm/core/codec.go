package core

import "github.com/bytedance/sonic"

// json 与 encoding/json 行为一致的 sonic 配置（map 键排序、HTML 转义）
//
// 请求体必须可复现：同一配置与消息两次构建得到逐字节相同的结果。
var json = sonic.ConfigStd

// Marshal 序列化为 JSON
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 反序列化 JSON
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
