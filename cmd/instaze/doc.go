// Copyright (c) Instaze Authors.
// Licensed under the MIT License.

/*
Package main 提供 Instaze 可执行程序入口。

# 概述

cmd/instaze 是限额感知的社交互动自动化工具的命令行入口。程序加载
YAML + 环境变量配置，打开本地 SQLite 动作存储，构建会话装饰链
（驱动边车 → 演练包装 → 节奏平滑），然后交给 campaign 编排器执行。

# 主要能力

  - 子命令：run（执行 campaign）、history（NDJSON 导出）、
    remaining（剩余配额）、version、help
  - 优雅中止：SIGINT/SIGTERM → 当前动作跑完 → 冷却立即打断 → 退出码 0
  - 启动失败（配置无效、存储损坏、登录失败）退出码非 0
  - 可选的 Prometheus /metrics 监听
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
