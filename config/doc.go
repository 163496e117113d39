// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

/*
Package config 提供 instaze 的配置加载与校验。

加载优先级: 默认值 → YAML 文件 → 环境变量（INSTAZE_ 前缀）。
账号凭据只能来自环境变量，永远不会写入或读取 YAML。
配置在启动时加载并校验一次，之后不可变。
*/
package config
